// internal/httpserver/session.go
//
// Cookie sessions.
// The fl_session cookie holds an HS256 JWT whose "sid" claim names an
// in-memory session. A missing, invalid or expired token, or a token whose
// session was pruned, starts a fresh game under a new id.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/firstlight/internal/event"
	"github.com/robalobadob/firstlight/internal/game"
	"github.com/robalobadob/firstlight/internal/history"
	"github.com/robalobadob/firstlight/internal/store"
)

const sessionCookieName = "fl_session"

// ctxSessionKey is the context key type for the request's *store.Session.
type ctxSessionKey struct{}

// sessionFrom returns the session installed by withSession.
func sessionFrom(r *http.Request) *store.Session {
	s, _ := r.Context().Value(ctxSessionKey{}).(*store.Session)
	return s
}

// withSession resolves (or creates) the caller's session.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess *store.Session
		if id, err := s.parseSessionToken(bearerOrCookie(r)); err == nil {
			sess, _ = s.opts.Sessions.Get(r.Context(), id)
		}
		if sess == nil {
			var err error
			sess, err = s.newSession(r.Context())
			if err != nil {
				log.Error().Err(err).Msg("create session")
				http.Error(w, `{"error":"session_failed"}`, http.StatusInternalServerError)
				return
			}
			tok, exp, err := s.signSessionToken(sess.ID)
			if err != nil {
				http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
				return
			}
			s.setSessionCookie(w, tok, exp)
			w.Header().Set("X-Session-Token", tok)
		}
		ctx := context.WithValue(r.Context(), ctxSessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// newSession builds a fresh game and registers it.
func (s *Server) newSession(ctx context.Context) (*store.Session, error) {
	id := uuid.Must(uuid.NewV7()).String()
	now := s.now()

	var persist event.Sink
	if s.opts.History != nil {
		persist = history.NewSink(s.opts.History, id, now)
	}
	sink := event.Multi(event.NewLogSink(log.With().Str("session", id).Logger()), persist)

	m := game.New(game.Deps{
		Glyphs:        s.opts.Content.Glyphs,
		Transmissions: s.opts.Content.Transmissions,
		Decoys:        s.opts.Decoys,
		Config:        &s.opts.Content.Config,
		Sink:          sink,
	})
	sess := store.NewSession(id, m, now)
	if err := s.opts.Sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	log.Info().Str("session", id).Msg("session started")
	return sess, nil
}

// ------------------------------ JWT & cookies ------------------------------

var errNoToken = errors.New("no session token")

// signSessionToken creates an HS256 JWT carrying the session id.
func (s *Server) signSessionToken(id string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.opts.SessionTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": id,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	})
	ss, err := t.SignedString([]byte(s.opts.SessionSecret))
	return ss, exp, err
}

// parseSessionToken validates tok and returns its session id.
func (s *Server) parseSessionToken(tok string) (string, error) {
	if tok == "" {
		return "", errNoToken
	}
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.opts.SessionSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !t.Valid {
		return "", errors.New("invalid session token")
	}
	id, _ := claims["sid"].(string)
	if id == "" {
		return "", errors.New("session token without sid")
	}
	return id, nil
}

// setSessionCookie writes the session cookie with appropriate security attributes.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string, exp time.Time) {
	sameSite := http.SameSiteLaxMode
	if s.opts.SecureCookies {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// bearerOrCookie extracts a bearer token from Authorization header or session cookie.
func bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(sessionCookieName); err == nil {
		return c.Value
	}
	return ""
}
