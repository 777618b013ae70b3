package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/unach-dtic/chatbot-api/internal/apperrors"
	"github.com/unach-dtic/chatbot-api/internal/config"
	"github.com/unach-dtic/chatbot-api/internal/embedding"
	"github.com/unach-dtic/chatbot-api/internal/logging"
	"github.com/unach-dtic/chatbot-api/internal/models"
)

// Fixed thresholds for the intent phrase sets. FAQ and scraping thresholds
// come from configuration instead.
const (
	greetingThreshold = 0.65
	passwordThreshold = 0.60
)

var greetingPhrases = []string{
	"hola", "buenos días", "buenas tardes", "buenas noches", "saludos", "hello", "hi", "qué tal",
	"buenas",
	"hey",
	"holi",
	"buen día",
	"buenas noches unachito",
	"unachito estás ahí",
	"unachito hola",
	"cómo estás",
	"qué onda",
	"qué hubo",
}

var passwordPhrases = []string{
	"cambiar mi contraseña", "olvidé mi contraseña", "recuperar mi clave", "resetear password",
	"actualizar contraseña", "no puedo acceder", "problema con la clave", "restablecer contraseña",
	"quiero cambiar el pass de la wifi",
	"quiero cambiar la clave de la red",
	"necesito cambiar mi clave wifi",
	"cambiar la contraseña de la red",
	"resetear clave del wifi",
	"cambiar clave del internet",
	"olvide la contraseña de la red",
	"clave de wifi",
	"pass del wifi",
	"no funciona mi wifi",
	"restablecer clave wifi",
}

const greetingReply = "👋 <strong>¡Hola! Soy Unachito</strong>, tu compañero digital en la UNACH.<br><br>" +
	"Estoy aquí para ayudarte con:<br>" +
	"&nbsp;&nbsp;&nbsp;&nbsp;📡 <strong>WiFi</strong><br>" +
	"&nbsp;&nbsp;&nbsp;&nbsp;📘 <strong>Moodle</strong><br>" +
	"&nbsp;&nbsp;&nbsp;&nbsp;🎥 <strong>Zoom</strong><br>" +
	"&nbsp;&nbsp;&nbsp;&nbsp;📧 <strong>Office 365</strong><br><br>" +
	"También puedo responder tus preguntas frecuentes.<br><br>" +
	"😊 <strong>¿Cómo te llamas?</strong>"

const passwordReply = "Para cambiar tu contraseña, selecciona una opción:"

const noMatchReply = "Lo siento, no encontré una respuesta adecuada."

// passwordActions are the reset flows the widget can launch.
var passwordActions = []string{"wifi", "office365", "moodle", "zoom"}

// Answer source labels returned in the "fuente" field.
const (
	SourceGreeting  = "Saludo"
	SourcePassword  = "Manejo especial"
	SourceFaq       = "FAQ BD"
	SourceScraping  = "Scraping"
	SourceNoMatch   = "Sin respuesta"
	unansweredOrigin = "API Chatbot"
)

// QueryOrigin carries request metadata for the unanswered-question record.
type QueryOrigin struct {
	IP      string
	Referer string
}

// IntentResolver runs the classification cascade for /query: greeting, then
// password intent, then FAQ lookup, then (after recording the question as
// unanswered) the scraped-corpus fallback.
type IntentResolver struct {
	embedder   embedding.Engine
	greetings  *SimilarityIndex
	passwords  *SimilarityIndex
	faqCache   *FaqCache
	corpus     *CorpusSearcher
	unanswered *UnansweredStore
	cfg        config.ClassifierConfig
	logger     *logging.StandardLogger
}

// NewIntentResolver embeds the greeting and password phrase sets and wires
// the cascade. corpus may be nil when scraping is disabled.
func NewIntentResolver(
	ctx context.Context,
	embedder embedding.Engine,
	faqCache *FaqCache,
	corpus *CorpusSearcher,
	unanswered *UnansweredStore,
	cfg config.ClassifierConfig,
	logger *logging.StandardLogger,
) (*IntentResolver, error) {
	greetings, err := NewSimilarityIndex(ctx, embedder, greetingPhrases)
	if err != nil {
		return nil, err
	}
	passwords, err := NewSimilarityIndex(ctx, embedder, passwordPhrases)
	if err != nil {
		return nil, err
	}
	return &IntentResolver{
		embedder:   embedder,
		greetings:  greetings,
		passwords:  passwords,
		faqCache:   faqCache,
		corpus:     corpus,
		unanswered: unanswered,
		cfg:        cfg,
		logger:     logger.WithComponent("intent_resolver"),
	}, nil
}

// Resolve classifies question and produces the reply. The question is
// normalized once and embedded once; that vector drives every stage.
func (r *IntentResolver) Resolve(ctx context.Context, question string, origin QueryOrigin) (*models.QueryResponse, error) {
	trimmed := strings.TrimSpace(question)
	if trimmed == "" {
		return nil, apperrors.New(apperrors.KindValidation, "Pregunta vacía.")
	}

	vec, err := r.embedder.Embed(ctx, embedding.NormalizeText(trimmed))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstreamUnavailable, "El servicio de lenguaje no está disponible.", err)
	}

	if _, score, err := r.greetings.Best(vec); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "", err)
	} else if score >= greetingThreshold {
		r.logger.Debug("greeting matched", zap.Float64("score", score))
		return &models.QueryResponse{Respuesta: greetingReply, Fuente: SourceGreeting}, nil
	}

	if _, score, err := r.passwords.Best(vec); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "", err)
	} else if score >= passwordThreshold {
		r.logger.Debug("password intent matched", zap.Float64("score", score))
		return &models.QueryResponse{
			Respuesta: passwordReply,
			Fuente:    SourcePassword,
			Acciones:  passwordActions,
		}, nil
	}

	entry, score, ok, err := r.faqCache.Lookup(vec)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "", err)
	}
	if ok {
		r.logger.Debug("faq candidate",
			zap.Float64("score", score),
			zap.String("pregunta", entry.Pregunta))
		if score >= r.cfg.FAQThreshold {
			return &models.QueryResponse{Respuesta: entry.Respuesta, Fuente: SourceFaq}, nil
		}
	}

	// The question missed every curated answer. Record it before trying the
	// scraped corpus so curation sees it even when scraping succeeds.
	record := models.UnansweredQuestion{
		Pregunta:  trimmed,
		UsuarioIP: origin.IP,
		Origen:    unansweredOrigin,
		URLOrigen: origin.Referer,
	}
	if record.URLOrigen == "" {
		record.URLOrigen = "N/A"
	}
	if err := r.unanswered.Record(ctx, record); err != nil {
		r.logger.WithError(err).Warn("failed to record unanswered question")
	}

	if r.cfg.EnableScraping && r.corpus != nil {
		text, source, score, found, err := r.corpus.Search(vec)
		if err != nil {
			r.logger.WithError(err).Warn("scraping search failed")
		} else if found && score >= r.cfg.ScrapingThreshold {
			r.logger.Debug("scraping matched",
				zap.Float64("score", score),
				zap.String("source", source))
			return &models.QueryResponse{
				Respuesta: text + " <br><small>🔎 Fuente scraping: " + source + "</small>",
				Fuente:    SourceScraping,
			}, nil
		}
	}

	return &models.QueryResponse{Respuesta: noMatchReply, Fuente: SourceNoMatch}, nil
}
