// Package responder selects the canned outbound reply for a processed
// message. Replies are deterministic keyword-to-template lookups per
// qualification track, with context-aware overrides for known contacts who
// ask about out-of-domain topics.
package responder

import (
	"strings"
	"unicode/utf8"

	"previdas_backend/internal/leads/domain"
)

// Track identifies which response table produced the reply.
type Track string

const (
	TrackSales         Track = "sales"
	TrackNurture       Track = "nurture"
	TrackQualification Track = "qualification"
)

// Responder picks reply templates based on the contact's final status.
type Responder struct{}

// New creates a Responder.
func New() *Responder {
	return &Responder{}
}

// Respond returns the reply text and the track that produced it. The status
// is the contact's freshly computed status, not the prior one.
func (r *Responder) Respond(text string, contact *domain.Contact) (string, Track) {
	lowered := strings.ToLower(text)

	switch contact.Status {
	case domain.StatusQualified:
		return salesResponse(lowered, contact), TrackSales
	case domain.StatusWarm:
		return nurtureResponse(lowered, contact), TrackNurture
	default:
		return qualificationResponse(lowered, contact), TrackQualification
	}
}

// salesResponse handles qualified contacts. Known high-score contacts asking
// about adjacent industries get a redirect instead of the product pitch.
func salesResponse(lowered string, contact *domain.Contact) string {
	known := contact.Score >= 75 || contact.Status == domain.StatusQualified

	if known {
		switch {
		case strings.Contains(lowered, "seguro"):
			return "Olá! Somos especializados em laudos médicos, não seguros. Mas posso ajudar com laudos para seus processos previdenciários. Precisa de algum laudo médico?"
		case containsAny(lowered, "banco", "empréstimo", "emprestimo", "financiamento"):
			return "Olá! Nossa especialidade são laudos médicos para processos jurídicos. Como posso ajudar com laudos para seus casos?"
		case containsAny(lowered, "curso", "treinamento", "capacitação", "capacitacao"):
			return "Olá! Somos especialistas em laudos médicos, não cursos. Mas posso ajudar com laudos para seus processos. Tem algum caso pendente?"
		}
	}

	switch {
	case strings.Contains(lowered, "bpc"):
		if strings.Contains(lowered, "urgente") {
			return "Especialistas em BPC urgente! Emitimos laudos em 6h. Qual o prazo da audiência?"
		}
		return "Perfeito! Somos especialistas em laudos BPC. Qual o CID do seu cliente?"
	case strings.Contains(lowered, "laudo"):
		if containsAny(lowered, "previdenciário", "previdenciario", "trabalhista") {
			return "Especialistas nessa área! Quantos laudos você precisa por mês?"
		}
		return "Fazemos laudos médicos especializados. Qual área: previdenciário, trabalhista ou civil?"
	case strings.Contains(lowered, "advogad"):
		return "Perfeito! Ajudamos advogados com laudos médicos há 10 anos. Qual sua especialidade?"
	default:
		return "Vou conectar você com nosso especialista imediatamente. Qual o melhor horário para contato?"
	}
}

// nurtureResponse handles warm contacts. A high score makes the reply more
// direct about handing off.
func nurtureResponse(lowered string, contact *domain.Contact) string {
	if contact.Score >= 70 {
		switch {
		case strings.Contains(lowered, "seguro"):
			return "Entendi! Não trabalhamos com seguros, mas somos especialistas em laudos médicos para advogados. Você atua na área jurídica?"
		case containsAny(lowered, "bpc", "previdenciário", "previdenciario"):
			return "Somos especialistas em BPC! Nossos laudos têm 95% de aprovação. Conectando com nosso especialista..."
		default:
			return "Entendo! Somos a Previdas, especialistas em laudos médicos para advogados. Vou conectar você com nossa equipe especializada."
		}
	}

	switch {
	case containsAny(lowered, "bpc", "previdenciário", "previdenciario"):
		return "Somos especialistas em BPC! Nossos laudos têm 95% de aprovação. Você é advogado?"
	case strings.Contains(lowered, "laudo"):
		return "Fazemos laudos médicos para processos jurídicos. Qual sua área de atuação?"
	case strings.Contains(lowered, "trabalham") && strings.Contains(lowered, "que"):
		return "Laudos médicos especializados para advogados. Você atua com previdenciário ou trabalhista?"
	case containsAny(lowered, "preço", "preco", "valor"):
		return "Nossos valores são competitivos. Você trabalha com quantos casos por mês?"
	default:
		return "Entendi. Somos especialistas em laudos médicos para advogados. Qual sua área?"
	}
}

// qualificationResponse handles cold and new contacts.
func qualificationResponse(lowered string, contact *domain.Contact) string {
	if contact.Score >= 50 {
		switch {
		case strings.Contains(lowered, "seguro"):
			return "Olá! Nossa especialidade são laudos médicos para advogados, não seguros. Você trabalha com direito?"
		case containsAny(lowered, "banco", "empréstimo", "emprestimo", "investimento"):
			return "Olá! Somos especializados em laudos médicos para processos jurídicos. Você é advogado?"
		}
	}

	switch {
	case strings.Contains(lowered, "trabalham") && strings.Contains(lowered, "que"):
		return "Fazemos laudos médicos para processos jurídicos. Você é advogado?"
	case utf8.RuneCountInString(lowered) < 10:
		return "Olá! Somos especialistas em laudos médicos para advogados. Qual sua profissão?"
	default:
		return "Entendido. Somos a Previdas, laudos médicos para advogados. Você atua na área jurídica?"
	}
}

func containsAny(lowered string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}
