package rating

// Bucket is the coarse credit-rating class used as the intermediate
// classification target. Fine-grained letter ratings are sparse and
// unstable to learn directly; buckets are learnable, and the conditional
// distribution table recovers fine-grained resolution probabilistically.
type Bucket string

const (
	BucketHigh   Bucket = "High"
	BucketMedium Bucket = "Medium"
	BucketLow    Bucket = "Low"
)

// Buckets lists every bucket the classifier can emit.
var Buckets = []Bucket{BucketHigh, BucketMedium, BucketLow}

var bucketByRating = map[string]Bucket{
	"AAA": BucketHigh, "AA+": BucketHigh, "AA": BucketHigh, "AA-": BucketHigh,
	"A+": BucketHigh, "A": BucketHigh, "A-": BucketHigh,
	"BBB+": BucketMedium, "BBB": BucketMedium, "BBB-": BucketMedium,
}

// Collapse maps a fine-grained rating symbol to its bucket: AAA through
// A- to High, BBB variants to Medium, everything else to Low.
func Collapse(fine string) Bucket {
	if b, ok := bucketByRating[fine]; ok {
		return b
	}
	return BucketLow
}

// ratingOrder fixes a global priority over fine-grained symbols, best
// first. The expander breaks ties toward the earlier symbol so repeated
// runs over the same table always agree.
var ratingOrder = []string{
	"AAA", "AA+", "AA", "AA-", "A+", "A", "A-",
	"BBB+", "BBB", "BBB-", "BB+", "BB", "BB-",
	"B+", "B", "B-", "CCC+", "CCC", "CCC-", "CC", "C", "D",
}

// ratingRank returns the priority of a symbol; every unknown symbol
// shares the rank behind the known ones.
func ratingRank(symbol string) int {
	for i, r := range ratingOrder {
		if r == symbol {
			return i
		}
	}
	return len(ratingOrder)
}

// ratingLess orders symbols by global priority; unknown symbols sort
// behind every known one, lexically among themselves.
func ratingLess(a, b string) bool {
	ra, rb := ratingRank(a), ratingRank(b)
	if ra != rb {
		return ra < rb
	}
	return a < b
}
