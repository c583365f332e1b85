/*
Package authsdk provides a client SDK for the Taskboard authentication service.

# SDKClient vs Session

The package is organized around two main types:

  - SDKClient: public endpoints (register, login, refresh, password reset,
    health) and creation of sessions
  - Session: authenticated endpoints with transparent token rotation

	client := authsdk.NewClient("http://localhost:5000")

	session, _, err := client.Login(ctx, "jane@example.com", "Secret123!")
	if err != nil {
		return err
	}

	user, err := session.Profile(ctx)

# Token Rotation

Access tokens live for 15 minutes. When a Session call is answered with
401 "Token expired", the session exchanges its refresh token for a new pair
and repeats the call once. Refresh tokens are single use, so concurrent
calls on one Session share a single rotation.

# Error Handling

Every non-2xx response becomes an *APIError carrying the status code and the
service's message:

	_, _, err := client.Login(ctx, email, password)
	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		fmt.Println(apiErr.Message) // "Invalid email or password"
	}

# Thread Safety

Sessions are safe for concurrent use.
*/
package authsdk
