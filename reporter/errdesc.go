package reporter

import "github.com/pwreport/pwreport"

// kindByCategory is the closed mapping from a raised failure's runtime
// category to an error kind. Categories follow the names the
// browser-automation collaborator reports.
var kindByCategory = map[string]pwreport.ErrorKind{
	"AssertionError":    pwreport.KindAssertion,
	"IndexError":        pwreport.KindIndex,
	"KeyError":          pwreport.KindKey,
	"TypeError":         pwreport.KindType,
	"ArithmeticError":   pwreport.KindArithmetic,
	"ZeroDivisionError": pwreport.KindArithmetic,
	"TimeoutError":      pwreport.KindTimeout,
}

// Describe builds an ErrorDescriptor from a raised failure. An
// unmapped category falls back to KindOther with the message preserved
// verbatim. Describe runs during failure handling and can itself never
// fail.
func Describe(raised RaisedError) pwreport.ErrorDescriptor {
	kind, ok := kindByCategory[raised.Category]
	if !ok {
		kind = pwreport.KindOther
	}

	return pwreport.ErrorDescriptor{
		Kind:     kind,
		Message:  raised.Message,
		Location: raised.Location,
	}
}
