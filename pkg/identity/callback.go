package identity

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// awaitCallback hosts a loopback HTTP endpoint for one interactive sign-in
// flow and blocks until the provider redirects back or the context is
// cancelled. Cancellation is reported as a user-cancelled sign-in, the
// loopback analogue of closing the provider popup.
func awaitCallback(ctx context.Context, addr, path, authURL string, logger *logrus.Entry) (url.Values, error) {
	results := make(chan url.Values, 1)

	router := mux.NewRouter()
	router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body>Sign-in complete. You may close this window.</body></html>")

		select {
		case results <- r.Form:
		default:
		}
	}).Methods(http.MethodGet, http.MethodPost)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.WithField("url", authURL).Info("open this URL in your browser to continue sign-in")

	select {
	case <-ctx.Done():
		return nil, ErrUserCancelled
	case err := <-errCh:
		return nil, NewError(CodeNetworkFailure, err.Error())
	case values := <-results:
		if errCode := values.Get("error"); errCode != "" {
			if errCode == "access_denied" {
				return nil, ErrUserCancelled
			}
			return nil, NewError(CodeNetworkFailure, errCode)
		}
		return values, nil
	}
}
