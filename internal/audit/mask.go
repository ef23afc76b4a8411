package audit

import "github.com/fairlens/fairlens/internal/core/domain"

// MaskedValue replaces demographic attribute values before storage.
const MaskedValue = "[MASKED]"

// Mask returns a copy of the demographics with every value replaced by
// MaskedValue. Attribute names survive so reviewers can still see which
// attributes were present without seeing their values.
func Mask(d domain.Demographics) domain.Demographics {
	if d == nil {
		return nil
	}
	out := make(domain.Demographics, len(d))
	for k := range d {
		out[k] = MaskedValue
	}
	return out
}
