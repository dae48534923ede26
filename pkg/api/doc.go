// Package api provides the HTTP REST API of the pet health service.
//
// # Routes
//
// Authentication:
//
//	POST /auth/register   {name, email, password}  -> 201 {id, name, email}
//	POST /auth/login      {email, password}        -> 200 {id, name, email} + session cookie
//	POST /auth/logout                              -> 200 {"success": true}, cookie cleared
//	GET  /auth/me         (session cookie)         -> 200 {id, name, email}
//
// Species catalogue (public):
//
//	GET /species
//	GET /species/{id}
//
// Pets of the authenticated user:
//
//	GET  /pets
//	POST /pets
//	GET  /pets/{id}
//
// # Sessions
//
// Login sets an httpOnly cookie (auth_token by default) holding a signed
// token. The session guard from package middleware reads it on every
// protected request and attaches the current user to the request context.
// Logout only clears the cookie; tokens are not revoked server-side.
//
// # Errors
//
// Every error body has the shape {"error": "..."}. Validation failures add a
// "details" object keyed by JSON field name. Domain errors are mapped to
// status codes in one place, writeServiceError.
//
// # Usage
//
//	server := api.NewServer(api.Config{
//		Cookie:         api.CookieConfig{Name: "auth_token", SameSite: "lax"},
//		AllowedOrigins: []string{"http://localhost:5173"},
//	}, api.Dependencies{
//		Auth:    authService,
//		Species: speciesService,
//		Pets:    petsService,
//		Logger:  logger,
//	})
//	http.ListenAndServe(":5000", server)
package api
