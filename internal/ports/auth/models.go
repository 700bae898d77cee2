package auth

// Claims representa la identidad autenticada del request.
type Claims struct {
	User string
	// Scheme con el que se autenticó (p.ej. "basic").
	Scheme string
}
