package enums

import "fmt"

// ReviewTarget tags the entity a review is attached to.
type ReviewTarget string

const (
	ReviewTargetProduct ReviewTarget = "product"
	ReviewTargetVendor  ReviewTarget = "vendor"
)

// String implements fmt.Stringer.
func (t ReviewTarget) String() string {
	return string(t)
}

// IsValid reports whether the value is a known ReviewTarget.
func (t ReviewTarget) IsValid() bool {
	return t == ReviewTargetProduct || t == ReviewTargetVendor
}

// ParseReviewTarget converts raw input into a ReviewTarget.
func ParseReviewTarget(value string) (ReviewTarget, error) {
	switch ReviewTarget(value) {
	case ReviewTargetProduct:
		return ReviewTargetProduct, nil
	case ReviewTargetVendor:
		return ReviewTargetVendor, nil
	}
	return "", fmt.Errorf("invalid review target %q", value)
}
