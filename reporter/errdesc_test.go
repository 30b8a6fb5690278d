package reporter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pwreport/pwreport"
)

func TestDescribe_KnownCategories(t *testing.T) {
	t.Parallel()

	tests := []struct {
		category string
		want     pwreport.ErrorKind
	}{
		{"AssertionError", pwreport.KindAssertion},
		{"IndexError", pwreport.KindIndex},
		{"KeyError", pwreport.KindKey},
		{"TypeError", pwreport.KindType},
		{"ZeroDivisionError", pwreport.KindArithmetic},
		{"ArithmeticError", pwreport.KindArithmetic},
		{"TimeoutError", pwreport.KindTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			t.Parallel()

			desc := Describe(RaisedError{Category: tt.category, Message: "boom"})
			assert.Equal(t, tt.want, desc.Kind)
			assert.Equal(t, "boom", desc.Message)
		})
	}
}

func TestDescribe_UnknownCategoryFallsBack(t *testing.T) {
	t.Parallel()

	desc := Describe(RaisedError{
		Category: "SomeObscureDriverError",
		Message:  "net::ERR_CONNECTION_REFUSED at https://example.test",
		Location: "tests/test_reporter.py:42",
	})

	assert.Equal(t, pwreport.KindOther, desc.Kind)
	// The raw message survives verbatim.
	assert.Equal(t, "net::ERR_CONNECTION_REFUSED at https://example.test", desc.Message)
	assert.Equal(t, "tests/test_reporter.py:42", desc.Location)
}

func TestDescribe_KindNeverFromMessage(t *testing.T) {
	t.Parallel()

	// A message that mentions a timeout must not produce KindTimeout
	// when the category says otherwise.
	desc := Describe(RaisedError{Category: "AssertionError", Message: "timed out waiting"})
	assert.Equal(t, pwreport.KindAssertion, desc.Kind)
}
