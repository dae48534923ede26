// Package auth implements registration, login and stateless session
// verification.
//
// # Components
//
// BcryptHasher hashes and verifies passwords behind a weighted semaphore so
// CPU-heavy bcrypt calls cannot exceed a fixed concurrency:
//
//	hasher, _ := auth.NewBcryptHasher(10, 4, auth.WithHashObserver(metrics))
//
// TokenService signs HS256 JWTs carrying the user id (sub) and email. Verify
// never reports why a token was rejected; the reason goes to WithRejectHook.
//
//	tokens, _ := auth.NewTokenService(secret, 24*time.Hour)
//	claims, ok := tokens.Verify(raw)
//
// Service ties them to a users.Store:
//
//	svc := auth.NewService(store, hasher, tokens, auth.WithLogger(logger))
//	user, err := svc.Register(ctx, "Ana", "ana@x.io", "secret1")
//	session, err := svc.Login(ctx, "ana@x.io", "secret1")
//	user, err = svc.VerifyToken(ctx, session.Token)
//
// # Errors
//
// ConflictError, AuthError and InputError carry client-safe messages. Use
// IsConflict, IsAuth and IsInput to classify; any other error is an
// infrastructure failure.
//
// Tokens are not revocable. Logging out clears the cookie, but a copied
// token stays valid until it expires.
package auth
