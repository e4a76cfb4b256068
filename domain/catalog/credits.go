package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

type creditsForm uint8

const (
	formScalar creditsForm = iota
	formBundle
)

// Credits is what a price option grants: either a scalar credit count or,
// for trials, a bundle of test cases and user stories. The form is decided
// once when the value is decoded.
type Credits struct {
	form        creditsForm
	count       int64
	testCases   int64
	userStories int64
}

// Scalar creates a scalar credit value.
func Scalar(count int64) Credits {
	return Credits{form: formScalar, count: count}
}

// Bundle creates a trial bundle credit value.
func Bundle(testCases, userStories int64) Credits {
	return Credits{form: formBundle, testCases: testCases, userStories: userStories}
}

// IsBundle returns true for trial bundles.
func (c Credits) IsBundle() bool {
	return c.form == formBundle
}

// Count returns the scalar credit count and false for bundles.
func (c Credits) Count() (int64, bool) {
	if c.form != formScalar {
		return 0, false
	}
	return c.count, true
}

// Bundle returns the bundle parts and false for scalars.
func (c Credits) Bundle() (testCases, userStories int64, ok bool) {
	if c.form != formBundle {
		return 0, 0, false
	}
	return c.testCases, c.userStories, true
}

// String renders credits for display.
func (c Credits) String() string {
	if c.form == formBundle {
		return fmt.Sprintf("%d test cases, %d user stories", c.testCases, c.userStories)
	}
	return fmt.Sprintf("%d credits", c.count)
}

type bundleJSON struct {
	TestCase  int64 `json:"test_case"`
	UserStory int64 `json:"user_story"`
}

// MarshalJSON writes a number for scalars and
// {"test_case":n,"user_story":m} for bundles.
func (c Credits) MarshalJSON() ([]byte, error) {
	if c.form == formBundle {
		return json.Marshal(bundleJSON{TestCase: c.testCases, UserStory: c.userStories})
	}
	return json.Marshal(c.count)
}

// UnmarshalJSON accepts a number, a numeric string, an object bundle, or null
// (zero scalar).
func (c *Credits) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = Scalar(0)
		return nil
	}

	switch data[0] {
	case '{':
		var b struct {
			TestCase  json.Number `json:"test_case"`
			UserStory json.Number `json:"user_story"`
		}
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("decode credit bundle: %w", err)
		}
		var parts [2]int64
		for i, num := range []json.Number{b.TestCase, b.UserStory} {
			if num == "" {
				continue
			}
			n, err := wholeCount(num)
			if err != nil {
				return fmt.Errorf("decode credit bundle: %w", err)
			}
			parts[i] = n
		}
		*c = Bundle(parts[0], parts[1])
		return nil
	default:
		var num json.Number
		if err := json.Unmarshal(data, &num); err != nil {
			return fmt.Errorf("decode credits: %w", err)
		}
		n, err := wholeCount(num)
		if err != nil {
			return fmt.Errorf("decode credits: %w", err)
		}
		*c = Scalar(n)
		return nil
	}
}

// wholeCount accepts integral numbers in any notation, so 500, "500",
// 500.0 and 5e2 all decode to 500.
func wholeCount(num json.Number) (int64, error) {
	if n, err := num.Int64(); err == nil {
		return n, nil
	}
	d, err := decimal.NewFromString(num.String())
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("credit count %s is not a whole number", num)
	}
	return d.IntPart(), nil
}
