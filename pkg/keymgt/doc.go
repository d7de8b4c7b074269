// Package keymgt provides client access to a remote key manager service
// for token validation, revocation, and client application inspection.
//
// The package hands callers a single, correctly-configured client handle.
// Configuration is read from a Java-style .properties file named by the
// KEYMGT_CONFIG environment variable (default "keymgt.properties"),
// searched first in the working directory and then on the resource path.
// The handle is constructed lazily on first use and lives for the process
// lifetime; there is no reconfigure-at-runtime operation.
//
// # Obtaining the handle
//
//	client, err := keymgt.Instance()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	status, err := client.ValidateToken(context.Background(), accessToken, nil)
//	if err != nil {
//	    log.Printf("Validation failed: %v", err)
//	    return
//	}
//
//	if status.Active {
//	    fmt.Printf("Token for %s, scopes %v\n", status.Subject, status.Scopes)
//	}
//
// Only the first call can fail with configuration errors
// (ErrConfigNotFound, ErrConfigParse); a failed attempt is not cached, so a
// later call with a valid source succeeds. Library code that needs isolated
// state constructs its own Registry:
//
//	reg := keymgt.NewRegistry(&keymgt.Resolver{
//	    Getenv:  os.Getenv,
//	    WorkDir: "/etc/keymgt",
//	})
//	client, err := reg.Instance()
//
// # Per-call request options
//
// Individual calls can carry custom headers without touching shared state:
//
//	opts := keymgt.NewRequestOptions().SetHeaders(map[string]string{
//	    "X-Tenant": "acme",
//	})
//	status, err := client.ValidateToken(ctx, accessToken, opts)
//
// Headers set this way apply to one call only. An options value
// distinguishes "no headers set" (Headers returns nil) from "explicitly
// empty" (Headers returns a non-nil empty map).
//
// # Local verification
//
// When a jwksEndpoint is configured, token signatures can be verified
// locally without a round trip to the introspection endpoint:
//
//	claims, err := client.VerifyLocal(ctx, accessToken)
//
// # Configuration properties
//
//	serverUrl=https://keymanager.example.com/api
//	username=admin
//	password=secret
//	# or OAuth2 client credentials instead of basic auth:
//	clientId=service-account
//	clientSecret=secret
//	tokenEndpoint=https://keymanager.example.com/oauth2/token
//	# optional:
//	jwksEndpoint=https://keymanager.example.com/oauth2/jwks
//	issuer=https://keymanager.example.com
//	audience=my-service
//	scopes=keymgt.read,keymgt.write
//	requestTimeout=30s
//	clockSkew=60s
package keymgt
