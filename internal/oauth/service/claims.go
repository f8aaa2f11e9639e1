package service

import "github.com/lagoonid/oauthd/internal/oauth/domain"

// claimsFromMap extracts the known claim fields from a raw claim map,
// dropping everything else. Numeric values arrive as float64 from JSON
// decoding.
func claimsFromMap(raw map[string]any) domain.Claims {
	c := domain.Claims{
		UID:              asString(raw["uid"]),
		Generation:       asInt64(raw["generation"]),
		VerifiedEmail:    asString(raw["verifiedEmail"]),
		LastAuthAt:       asInt64(raw["lastAuthAt"]),
		IssuedAt:         asInt64(raw["iat"]),
		TokenVerified:    asBool(raw["tokenVerified"]),
		SessionTokenID:   asString(raw["sessionTokenId"]),
		AAL:              asInt64(raw["aal"]),
		ProfileChangedAt: asInt64(raw["profileChangedAt"]),
	}
	if amr, ok := raw["amr"].([]any); ok {
		for _, m := range amr {
			if s, ok := m.(string); ok {
				c.AMR = append(c.AMR, s)
			}
		}
	}
	return c
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
