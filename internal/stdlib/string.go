package stdlib

import (
	"regexp"
	"strings"
	"unicode"

	"recordkit/internal/pipeline"
	"recordkit/internal/value"
)

// Uppercase and Lowercase are simple on-set transforms (used by the S1
// scenario of spec.md §8: `nameUpper: String @onSet(uppercase)`).
var Uppercase = pipeline.Func{
	FuncName: "uppercase",
	Fn: func(ctx pipeline.Ctx, args pipeline.Arguments) (pipeline.Output, error) {
		s, err := pipeline.InputString(ctx)
		if err != nil {
			return pipeline.Output{}, err
		}
		return pipeline.Transform(value.String(strings.ToUpper(s))), nil
	},
}

var Lowercase = pipeline.Func{
	FuncName: "lowercase",
	Fn: func(ctx pipeline.Ctx, args pipeline.Arguments) (pipeline.Output, error) {
		s, err := pipeline.InputString(ctx)
		if err != nil {
			return pipeline.Output{}, err
		}
		return pipeline.Transform(value.String(strings.ToLower(s))), nil
	},
}

var Trim = pipeline.Func{
	FuncName: "trim",
	Fn: func(ctx pipeline.Ctx, args pipeline.Arguments) (pipeline.Output, error) {
		s, err := pipeline.InputString(ctx)
		if err != nil {
			return pipeline.Output{}, err
		}
		return pipeline.Transform(value.String(strings.TrimSpace(s))), nil
	},
}

// validator wraps a string predicate as a pipeline.Item that produces a
// ValidResult, the way spec.md §4.4 describes: "on mismatch produce
// Invalid(reason)".
func validator(name, reason string, ok func(s string) bool) pipeline.Item {
	return pipeline.Func{
		FuncName: name,
		Fn: func(ctx pipeline.Ctx, args pipeline.Arguments) (pipeline.Output, error) {
			s, err := pipeline.InputString(ctx)
			if err != nil {
				return pipeline.Output{}, err
			}
			if ok(s) {
				return pipeline.ValidatorResult(pipeline.Valid()), nil
			}
			return pipeline.ValidatorResult(pipeline.Invalid(reason)), nil
		},
	}
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
var hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// IsEmail, IsHexColor, IsSecurePassword, IsNumeric, IsAlphabetic,
// IsAlphanumeric are the string validators named in spec.md §4.4.
var (
	IsEmail    = validator("isEmail", "is not a valid email address", emailRe.MatchString)
	IsHexColor = validator("isHexColor", "is not a valid hex color", hexColorRe.MatchString)

	IsSecurePassword = validator("isSecurePassword", "is not a secure password", func(s string) bool {
		if len(s) < 8 {
			return false
		}
		var hasUpper, hasLower, hasDigit bool
		for _, r := range s {
			switch {
			case unicode.IsUpper(r):
				hasUpper = true
			case unicode.IsLower(r):
				hasLower = true
			case unicode.IsDigit(r):
				hasDigit = true
			}
		}
		return hasUpper && hasLower && hasDigit
	})

	IsNumeric = validator("isNumeric", "is not numeric", func(s string) bool {
		if s == "" {
			return false
		}
		for _, r := range s {
			if !unicode.IsDigit(r) {
				return false
			}
		}
		return true
	})

	IsAlphabetic = validator("isAlphabetic", "is not alphabetic", func(s string) bool {
		if s == "" {
			return false
		}
		for _, r := range s {
			if !unicode.IsLetter(r) {
				return false
			}
		}
		return true
	})

	IsAlphanumeric = validator("isAlphanumeric", "is not alphanumeric", func(s string) bool {
		if s == "" {
			return false
		}
		for _, r := range s {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return false
			}
		}
		return true
	})
)

// HasPrefix and HasSuffix take their comparison string from the bound
// "value" argument.
var HasPrefix = pipeline.Func{
	FuncName: "hasPrefix",
	Fn: func(ctx pipeline.Ctx, args pipeline.Arguments) (pipeline.Output, error) {
		s, err := pipeline.InputString(ctx)
		if err != nil {
			return pipeline.Output{}, err
		}
		prefixV, err := pipeline.ArgValue(ctx, args, operandArg)
		if err != nil {
			return pipeline.Output{}, err
		}
		prefix, _ := prefixV.AsString()
		if strings.HasPrefix(s, prefix) {
			return pipeline.ValidatorResult(pipeline.Valid()), nil
		}
		return pipeline.ValidatorResult(pipeline.Invalid("does not have prefix " + prefix)), nil
	},
}

var HasSuffix = pipeline.Func{
	FuncName: "hasSuffix",
	Fn: func(ctx pipeline.Ctx, args pipeline.Arguments) (pipeline.Output, error) {
		s, err := pipeline.InputString(ctx)
		if err != nil {
			return pipeline.Output{}, err
		}
		suffixV, err := pipeline.ArgValue(ctx, args, operandArg)
		if err != nil {
			return pipeline.Output{}, err
		}
		suffix, _ := suffixV.AsString()
		if strings.HasSuffix(s, suffix) {
			return pipeline.ValidatorResult(pipeline.Valid()), nil
		}
		return pipeline.ValidatorResult(pipeline.Invalid("does not have suffix " + suffix)), nil
	},
}

// RegexMatch validates ctx.Value's string form against the bound "pattern"
// argument.
var RegexMatch = pipeline.Func{
	FuncName: "regexMatch",
	Fn: func(ctx pipeline.Ctx, args pipeline.Arguments) (pipeline.Output, error) {
		s, err := pipeline.InputString(ctx)
		if err != nil {
			return pipeline.Output{}, err
		}
		patternV, err := pipeline.ArgValue(ctx, args, "pattern")
		if err != nil {
			return pipeline.Output{}, err
		}
		if re, ok := patternV.AsRegex(); ok {
			if re.MatchString(s) {
				return pipeline.ValidatorResult(pipeline.Valid()), nil
			}
			return pipeline.ValidatorResult(pipeline.Invalid("does not match pattern")), nil
		}
		pattern, _ := patternV.AsString()
		re, err := regexp.Compile(pattern)
		if err != nil {
			return pipeline.Output{}, err
		}
		if re.MatchString(s) {
			return pipeline.ValidatorResult(pipeline.Valid()), nil
		}
		return pipeline.ValidatorResult(pipeline.Invalid("does not match pattern")), nil
	},
}
