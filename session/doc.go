// Package session keeps the signed-in user's token and identity in a
// kvstore.Store.
//
// Tokens are JWTs. The client reads their claims without verifying the
// signature (it does not hold the signing key) and refuses tokens whose exp
// has passed. Issue and Verify cover the server side and are used by the
// development simulator.
//
//	sess := session.New(store)
//	id, err := sess.Login(ctx, token)
//	adapter, _ := httpclient.New(httpclient.Config{
//	    BaseURL: "http://localhost:8080",
//	    Auth:    httpclient.BearerTokenFunc(sess.Token),
//	})
package session
