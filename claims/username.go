package claims

import "strings"

// Claim names checked during username resolution, in precedence order.
const (
	ClaimManagedIdentityResourceID = "xms_mirid"
	ClaimUserPrincipalName         = "upn"
	ClaimPreferredUsername         = "preferred_username"
	ClaimUniqueName                = "unique_name"
)

// userAssignedIdentityPath is the resource-id path that must precede the
// identity name in an xms_mirid claim, compared case-insensitively.
const userAssignedIdentityPath = "providers/microsoft.managedidentity/userassignedidentities"

var fallbackUsernameClaims = []string{
	ClaimUserPrincipalName,
	ClaimPreferredUsername,
	ClaimUniqueName,
}

// ResolveUsername picks a database role name out of a claim mapping. A managed
// identity resource id wins when it has the user-assigned-identity shape;
// otherwise the first present principal-name claim is used. No match is not an
// error: the second return value reports whether a name was found.
func ResolveUsername(c Claims) (string, bool) {
	if name, ok := usernameFromResourceID(c.String(ClaimManagedIdentityResourceID)); ok {
		return name, true
	}
	for _, claim := range fallbackUsernameClaims {
		if value := c.String(claim); value != "" {
			return value, true
		}
	}
	return "", false
}

// UsernameFromToken decodes a bearer token's payload and resolves a username
// from it. Malformed tokens yield no result rather than an error.
func UsernameFromToken(token string) (string, bool) {
	payload, err := Decode(token)
	if err != nil {
		return "", false
	}
	return ResolveUsername(payload)
}

// usernameFromResourceID extracts the trailing identity name from a managed
// identity resource id of the form
// .../providers/Microsoft.ManagedIdentity/userAssignedIdentities/{name}.
// A shape mismatch falls through to the next precedence rule.
func usernameFromResourceID(resourceID string) (string, bool) {
	trimmed := strings.TrimSpace(resourceID)
	if trimmed == "" {
		return "", false
	}
	split := strings.LastIndex(trimmed, "/")
	if split < 0 {
		return "", false
	}
	path, name := trimmed[:split], trimmed[split+1:]
	if name == "" {
		return "", false
	}
	if !strings.HasSuffix(strings.ToLower(path), userAssignedIdentityPath) {
		return "", false
	}
	return name, true
}
