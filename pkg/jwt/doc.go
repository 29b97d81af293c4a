// Package jwt signs and validates RS256 access tokens for the Raasta Sathi API.
//
// Tokens carry the user ID, email and role. Middleware uses the role claim
// for authority and admin checks:
//
//	svc, err := jwt.NewService(jwt.Config{
//	    PrivateKeyPath: "keys/private.pem",
//	    Issuer:         "raasta-sathi",
//	    ExpirationMins: 60,
//	})
//
//	token, err := svc.Sign(jwt.Claims{UserID: user.ID, Role: jwt.RoleCitizen})
//	claims, err := svc.Validate(token)
//
// Validation-only deployments may configure just PublicKeyPath.
package jwt
