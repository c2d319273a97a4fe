package sales

// Closed domains of the predictor input fields, in the order the selectors present them.

var AreaCodes = []int{
	203, 206, 209, 210, 212, 213, 214, 216, 217, 224, 225, 234, 239, 253, 254, 262, 281, 303, 305, 309, 310, 312, 314, 315, 318,
	319, 321, 323, 325, 330, 337, 339, 347, 351, 352, 360, 361, 386, 405, 407, 408, 409, 413, 414, 415, 417, 419, 425, 430, 432,
	435, 440, 469, 475, 503, 504, 505, 508, 509, 510, 512, 513, 515, 516, 518, 530, 541, 559, 561, 562, 563, 567, 573, 580, 585,
	603, 607, 608, 614, 617, 618, 619, 626, 630, 631, 636, 641, 646, 650, 660, 661, 682, 702, 707, 708, 712, 713, 714, 715, 716,
	718, 719, 720, 727, 740, 754, 760, 772, 773, 774, 775, 781, 786, 801, 805, 806, 813, 815, 816, 817, 818, 830, 831, 832, 845,
	847, 850, 857, 858, 860, 863, 903, 904, 909, 914, 915, 916, 917, 918, 920, 925, 936, 937, 940, 941, 949, 951, 954, 956, 959, 970,
	971, 972, 978, 979, 985,
}

var States = []string{
	"Connecticut", "Washington", "California", "Texas", "New York", "Ohio",
	"Illinois", "Louisiana", "Florida", "Wisconsin", "Colorado", "Missouri", "Iowa",
	"Massachusetts", "Oklahoma", "Utah", "Oregon", "New Mexico", "New Hampshire", "Nevada",
}

var Products = []string{
	"Columbian", "Green Tea", "Caffe Mocha", "Decaf Espresso", "Lemon", "Mint", "Darjeeling",
	"Decaf Irish Cream", "Chamomile", "Earl Grey", "Caffe Latte", "Amaretto", "Regular Espresso",
}

var MarketSizes = []MarketSize{SmallMarket, MajorMarket}

// Numeric input ranges accepted by the prediction form.
const (
	MaxTotalExpenses = 1000
	MaxInventory     = 10000
	MaxSales         = 1000
)

var (
	areaCodeSet = func() map[int]bool {
		m := make(map[int]bool, len(AreaCodes))
		for _, c := range AreaCodes {
			m[c] = true
		}
		return m
	}()
	stateSet   = toSet(States)
	productSet = toSet(Products)
)

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}

// KnownAreaCode reports whether c is one of AreaCodes.
func KnownAreaCode(c int) bool { return areaCodeSet[c] }

// KnownState reports whether s is one of States (exact match).
func KnownState(s string) bool { return stateSet[s] }

// KnownProduct reports whether p is one of Products (exact match).
func KnownProduct(p string) bool { return productSet[p] }
