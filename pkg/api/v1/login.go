package v1

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/datalayer/datalayer-go/pkg/client"
	"github.com/datalayer/datalayer-go/pkg/dlyerr"
	"github.com/datalayer/datalayer-go/pkg/logger"
)

// LoginRouter sets up the login page and credential exchange routes.
func LoginRouter(apiClient *client.Client) http.Handler {
	routes := &loginRoutes{client: apiClient}
	r := chi.NewRouter()
	r.Get("/", routes.getLoginPage)
	r.Post("/", routes.postLogin)
	return r
}

type loginRoutes struct {
	client *client.Client
}

const loginPage = `<!DOCTYPE html>
<html>
<head>
  <title>Datalayer Login</title>
  <style>
    body { font-family: system-ui, sans-serif; margin: 80px auto; max-width: 360px; }
    h1 { font-size: 1.4em; }
    input { display: block; width: 100%; margin: 8px 0; padding: 8px; box-sizing: border-box; }
    button { margin-top: 8px; padding: 8px 16px; }
  </style>
</head>
<body>
  <h1>Datalayer Login</h1>
  <form method="post">
    <input type="text" name="handle" placeholder="Handle" autofocus>
    <input type="password" name="password" placeholder="Password">
    <button type="submit">Sign in</button>
  </form>
</body>
</html>`

func (l *loginRoutes) getLoginPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte(loginPage))
}

type loginRequest struct {
	Handle   string `json:"handle"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Handle  string `json:"handle,omitempty"`
	Message string `json:"message,omitempty"`
}

func (l *loginRoutes) postLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest

	// Accept both the JSON body frontends send and the form the HTML
	// login page submits.
	switch {
	case r.Header.Get("Content-Type") == "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form body", http.StatusBadRequest)
			return
		}
		req.Handle = r.FormValue("handle")
		req.Password = r.FormValue("password")
	default:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	result, err := l.client.IAM.Login(r.Context(), req.Handle, req.Password)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case dlyerr.IsInvalidArgument(err):
			status = http.StatusBadRequest
		case dlyerr.IsUnauthenticated(err):
			status = http.StatusUnauthorized
		}
		logger.Debugf("login failed: %v", err)
		writeJSON(w, status, loginResponse{Success: false, Message: "login failed"})
		return
	}

	resp := loginResponse{Success: true, Token: result.Token}
	if result.User != nil {
		resp.Handle = result.User.Handle
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("failed to encode response: %v", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
