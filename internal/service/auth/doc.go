// Package auth validates the identity tokens issued by the platform's
// identity provider. Tokens are HMAC-SHA256 JWTs carrying the user id in
// the "uid" claim and the platform role in the "role" claim. Issuing
// tokens is the identity provider's job and is not done here.
package auth
