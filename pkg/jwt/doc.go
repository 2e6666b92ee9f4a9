// Package jwt signs and verifies HS256 JSON Web Tokens.
//
// It wraps github.com/golang-jwt/jwt/v5 with the policy every token in this
// service follows: only HS256 is accepted, an exp claim is mandatory, and the
// clock is injectable for tests.
//
// # Usage
//
//	svc, err := jwt.NewFromString(os.Getenv("ACCESS_TOKEN_SECRET"))
//	if err != nil {
//	    return err
//	}
//
//	type claims struct {
//	    jwt.RegisteredClaims
//	    Email string `json:"email"`
//	}
//
//	token, err := svc.Generate(&claims{
//	    RegisteredClaims: jwt.RegisteredClaims{
//	        Subject:   userID,
//	        ExpiresAt: jwt.NewNumericDate(svc.Now().Add(15 * time.Minute)),
//	    },
//	    Email: email,
//	})
//
//	var got claims
//	if err := svc.Parse(token, &got); err != nil {
//	    // expired, tampered or signed with another algorithm
//	}
package jwt
