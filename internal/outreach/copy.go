// Package outreach generates personalized Spanish DMs for selected leads,
// via the generative oracle when available and a deterministic template
// generator otherwise.
package outreach

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// defaultTeamName is used when no SDR name can be derived from the actor's
// contact address.
const defaultTeamName = "Equipo Harbiz"

// LeadType classifies a lead as an individual practitioner or a venue.
type LeadType string

// Lead classifications.
const (
	LeadTypeIndividual LeadType = "individual"
	LeadTypeCenter     LeadType = "center"
)

// Signals are derived purely from bio text and are not persisted.
type Signals struct {
	LeadType      LeadType
	IsOnline      bool
	IsLocalRegion bool
	ServiceHook   string
}

var titleCaser = cases.Title(language.Spanish)

// SDRName derives a display name from the actor's contact address: the
// local part before "@", split on "." / "_" / "-", first token title-cased.
func SDRName(contact string) string {
	local := strings.ToLower(strings.TrimSpace(strings.SplitN(contact, "@", 2)[0]))
	if local == "" {
		return defaultTeamName
	}
	tokens := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-'
	})
	first := local
	if len(tokens) > 0 {
		first = tokens[0]
	}
	if first == "" {
		return defaultTeamName
	}
	return titleCaser.String(first)
}

// FirstName extracts a plausible personal first name from a display name.
// All-caps tokens (usually brands), very short tokens, and @handles yield "".
func FirstName(displayName string) string {
	s := strings.TrimSpace(displayName)
	if s == "" {
		return ""
	}
	first := strings.Fields(s)[0]

	if strings.HasPrefix(first, "@") {
		return ""
	}
	if len(first) <= 2 {
		return ""
	}
	if strings.ToUpper(first) == first {
		return ""
	}
	return first
}

func hasAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// DetectSignals classifies a bio via case-insensitive keyword matching.
// Venue words without practitioner words mean center and vice versa; a tie
// (both or neither) resolves to center only when schedule/capacity words
// are present.
func DetectSignals(bio string) Signals {
	t := strings.ToLower(bio)

	sig := Signals{
		IsOnline:      hasAny(t, vocab.Online),
		IsLocalRegion: hasAny(t, vocab.Mexico),
	}

	looksIndividual := hasAny(t, vocab.Individual)
	looksCenter := hasAny(t, vocab.Center)

	switch {
	case looksCenter && !looksIndividual:
		sig.LeadType = LeadTypeCenter
	case looksIndividual && !looksCenter:
		sig.LeadType = LeadTypeIndividual
	case hasAny(t, vocab.Schedule):
		sig.LeadType = LeadTypeCenter
	default:
		sig.LeadType = LeadTypeIndividual
	}

	for _, svc := range vocab.Services {
		if hasAny(t, svc.Keywords) {
			sig.ServiceHook = svc.Name
			break
		}
	}

	return sig
}

// noticedClause builds the inline "what we noticed" fragment personalizing
// the opening line.
func noticedClause(sig Signals) string {
	if sig.IsOnline {
		if sig.LeadType == LeadTypeCenter {
			return " y vi que también trabajáis online"
		}
		return " y vi que trabajas online"
	}
	if sig.ServiceHook == "" {
		return ""
	}
	if sig.LeadType == LeadTypeCenter {
		return " y vi que tenéis " + sig.ServiceHook
	}
	if sig.ServiceHook == "entrenamiento" {
		return " y vi que trabajas como coach/entrenador"
	}
	return " y vi que trabajas " + sig.ServiceHook
}

// Generate produces the deterministic outreach message for a lead. It is a
// pure function of its inputs and serves both as the default no-oracle path
// and as the fallback when the oracle fails.
func Generate(actorContact, displayName, bio string) string {
	sdr := SDRName(actorContact)
	name := FirstName(displayName)
	sig := DetectSignals(bio)
	noticed := noticedClause(sig)

	if sig.LeadType == LeadTypeIndividual {
		greeting := "Hola! Soy " + sdr + "."
		if name != "" {
			greeting = "Hola " + name + "! Soy " + sdr + "."
		}
		online := ""
		channel := "WhatsApp/Excel"
		if sig.IsOnline {
			online = " online"
			channel = "WhatsApp/Drive"
		}
		return strings.Join([]string{
			greeting,
			"",
			"Le eché un vistazo a tu perfil" + noticed + ". En Harbiz ayudamos a coaches" + online +
				" a ordenar planes, seguimiento y comunicación con clientes en una sola app, sin vivir entre WhatsApp, PDFs y Excel.",
			"Hoy lo llevas más por " + channel + " o ya usas alguna app?",
		}, "\n")
	}

	paymentsBit := ""
	if sig.IsLocalRegion {
		paymentsBit = " y membresías/pagos"
	}
	return strings.Join([]string{
		"Hola! Soy " + sdr + ".",
		"",
		"Le eché un vistazo a vuestro perfil" + noticed + ". En Harbiz ayudamos a studios a llevar reservas/clases, clientes" + paymentsBit +
			" más ordenado en una sola plataforma, sin depender de WhatsApp y hojas sueltas.",
		"Las reservas las gestionáis por DM/WhatsApp o ya tenéis sistema?",
	}, "\n")
}
