package http

import (
	"errors"
	"net/http"

	"phambili/internal/identity"
	"phambili/internal/storage"
)

func userPayload(u storage.UserRecord) map[string]interface{} {
	return map[string]interface{}{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}

	name := p.Get("name")
	email := p.Get("email")
	password := p.Get("password")
	if name == "" || email == "" || password == "" {
		UnprocessableEntityError("name, email and password are required").Write(w)
		return
	}

	user, err := s.registry.Register(r.Context(), name, email, password)
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			ConflictError("Email is already registered").Write(w)
			return
		}
		InternalServerError("Internal error").Write(w)
		return
	}

	NewJSONResponse().Status(http.StatusCreated).Field("user", userPayload(user)).Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}

	user, err := s.registry.Login(r.Context(), p.Get("email"), p.Get("password"))
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			UnauthorizedError("Invalid email or password").Write(w)
			return
		}
		InternalServerError("Internal error").Write(w)
		return
	}

	NewJSONResponse().Field("user", userPayload(user)).Write(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	if err := s.registry.Logout(r.Context()); err != nil {
		if errors.Is(err, identity.ErrNotLoggedIn) {
			UnauthorizedError("No user logged in").Write(w)
			return
		}
		InternalServerError("Internal error").Write(w)
		return
	}

	NewJSONResponse().Field("logged_out", true).Write(w)
}
