package server

import (
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	connectcors "connectrpc.com/cors"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/at-ishikawa/jmemory/internal/auth"
)

// ServicePath is the path prefix of the practice service
const ServicePath = "/jmemory.v1.PracticeService/"

const (
	ListDecksProcedure    = ServicePath + "ListDecks"
	StartSessionProcedure = ServicePath + "StartSession"
	CurrentCardProcedure  = ServicePath + "CurrentCard"
	CheckProcedure        = ServicePath + "Check"
	ShowAnswerProcedure   = ServicePath + "ShowAnswer"
	MarkProcedure         = ServicePath + "Mark"
	NextProcedure         = ServicePath + "Next"
	ResetDecksProcedure   = ServicePath + "ResetDecks"
	EndSessionProcedure   = ServicePath + "EndSession"
	BrowseKanjiProcedure  = ServicePath + "BrowseKanji"
)

// Codec returns the codec the service speaks, for clients
func Codec() connect.Codec {
	return jsonCodec{}
}

// NewServiceHandler builds the Connect handler of every procedure
func NewServiceHandler(h *PracticeHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(ListDecksProcedure, connect.NewUnaryHandler(ListDecksProcedure, h.ListDecks, opts...))
	mux.Handle(StartSessionProcedure, connect.NewUnaryHandler(StartSessionProcedure, h.StartSession, opts...))
	mux.Handle(CurrentCardProcedure, connect.NewUnaryHandler(CurrentCardProcedure, h.CurrentCard, opts...))
	mux.Handle(CheckProcedure, connect.NewUnaryHandler(CheckProcedure, h.Check, opts...))
	mux.Handle(ShowAnswerProcedure, connect.NewUnaryHandler(ShowAnswerProcedure, h.ShowAnswer, opts...))
	mux.Handle(MarkProcedure, connect.NewUnaryHandler(MarkProcedure, h.Mark, opts...))
	mux.Handle(NextProcedure, connect.NewUnaryHandler(NextProcedure, h.Next, opts...))
	mux.Handle(ResetDecksProcedure, connect.NewUnaryHandler(ResetDecksProcedure, h.ResetDecks, opts...))
	mux.Handle(EndSessionProcedure, connect.NewUnaryHandler(EndSessionProcedure, h.EndSession, opts...))
	mux.Handle(BrowseKanjiProcedure, connect.NewUnaryHandler(BrowseKanjiProcedure, h.BrowseKanji, opts...))
	return ServicePath, mux
}

// NewHTTPHandler serves the practice service over h2c with CORS. A nil
// verifier serves every request anonymously.
func NewHTTPHandler(h *PracticeHandler, verifier *auth.TokenVerifier, allowedOrigins []string, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	path, handler := NewServiceHandler(h, connect.WithInterceptors(
		Logger(logger),
		Authenticate(verifier),
	))

	mux := http.NewServeMux()
	mux.Handle(path, handler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: connectcors.AllowedMethods(),
		AllowedHeaders: append(connectcors.AllowedHeaders(), "Authorization"),
		ExposedHeaders: connectcors.ExposedHeaders(),
		MaxAge:         3600,
	}).Handler(mux)
	return h2c.NewHandler(corsHandler, &http2.Server{})
}
