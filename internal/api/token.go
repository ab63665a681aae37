package api

// tokenRule names one candidate location for the bearer token in a
// verify-code response: either a top-level field or a field nested one
// level under "data".
type tokenRule struct {
	nested bool
	field  string
}

// tokenRules is the fixed extraction order. The first rule that yields a
// non-empty string wins; later matches are ignored.
var tokenRules = []tokenRule{
	{field: "token"},
	{field: "jwt"},
	{field: "access_token"},
	{nested: true, field: "token"},
	{nested: true, field: "jwt"},
	{nested: true, field: "access_token"},
}

// extractToken applies tokenRules to a decoded response body.
func extractToken(body map[string]any) (string, bool) {
	for _, rule := range tokenRules {
		scope := body
		if rule.nested {
			data, ok := body["data"].(map[string]any)
			if !ok {
				continue
			}
			scope = data
		}
		if token, ok := scope[rule.field].(string); ok && token != "" {
			return token, true
		}
	}
	return "", false
}
