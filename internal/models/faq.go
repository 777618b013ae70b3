package models

import "time"

// FaqEntry is a curated question/answer pair. Consumed read-only by the
// resolver; embeddings derived from Pregunta live in the process-wide
// snapshot cache, not here.
type FaqEntry struct {
	ID        int64      `json:"id" db:"id"`
	Pregunta  string     `json:"pregunta" db:"pregunta"`
	Respuesta string     `json:"respuesta" db:"respuesta"`
	Categoria string     `json:"categoria" db:"categoria"`
	CreatedAt time.Time  `json:"fecha_creacion" db:"fecha_creacion"`
	UpdatedAt *time.Time `json:"fecha_update,omitempty" db:"fecha_update"`
}

// UnansweredQuestion records a query the resolver could not answer from the
// FAQ cache. Written before any scraping fallback runs.
type UnansweredQuestion struct {
	ID        int64     `json:"id" db:"id"`
	Pregunta  string    `json:"pregunta" db:"pregunta"`
	Fecha     time.Time `json:"fecha" db:"fecha"`
	UsuarioIP string    `json:"usuario_ip" db:"usuario_ip"`
	Origen    string    `json:"origen" db:"origen"`
	URLOrigen string    `json:"url_origen" db:"url_origen"`
	Estado    string    `json:"estado" db:"estado"`
}

// UnansweredStatePending is the initial state of a recorded question.
const UnansweredStatePending = "pendiente"

// QueryRequest is the /query payload.
type QueryRequest struct {
	Pregunta string `json:"pregunta"`
}

// QueryResponse is the /query success shape. Acciones is only present for
// password-intent replies.
type QueryResponse struct {
	Respuesta string   `json:"respuesta"`
	Fuente    string   `json:"fuente"`
	Acciones  []string `json:"acciones,omitempty"`
}
