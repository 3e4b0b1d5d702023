package chat

import (
	"fmt"
	"strings"

	"github.com/ppiankov/transitions/internal/model"
)

// NoContext stands in for the context block when no document matched
const NoContext = "(aucun contexte trouvé dans les documents)"

// SystemPrompt holds the assistant's rules for citing site documents
const SystemPrompt = `Tu es un assistant pour le site Solutions Transitions, destiné aux élus, agents territoriaux et acteurs locaux.

RÈGLES STRICTES :
1. Tu ne dois JAMAIS inventer de fiches ou ressources. Tu ne peux mentionner QUE les documents fournis dans le contexte ci-dessous.
2. Quand tu mentionnes une fiche ou ressource, tu DOIS inclure son URL exacte entre parenthèses, comme ceci : "**Titre de la fiche** (URL)"
3. Privilégie les FICHES (type=fiche) car elles sont plus complètes et pratiques que les ressources.
4. Sois concis et orienté action : propose directement les fiches pertinentes avec une brève explication de pourquoi elles répondent à la question.
5. Ne fais PAS de suggestions génériques hors du contenu du site. Reste strictement dans le périmètre des documents fournis.
6. Si aucun document ne correspond à la question, dis-le clairement plutôt que d'inventer.

Format de réponse idéal :
- Cite 1 à 3 fiches pertinentes avec leur URL
- Explique brièvement pourquoi chaque fiche est utile
- Synthétise les points clés si le contexte le permet`

// BuildContext renders the documents as the context block of the prompt
func BuildContext(docs []model.Document) string {
	if len(docs) == 0 {
		return NoContext
	}

	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, fmt.Sprintf("[%s] \"%s\"\nURL: %s\nContenu:\n%s", d.Kind.Label(), d.Title, d.URL, d.Body))
	}
	return strings.Join(parts, "\n\n")
}

// SearchQuery joins the user's previous turns and the new message
func SearchQuery(history []model.HistoryMessage, message string) string {
	parts := make([]string, 0, len(history)+1)
	for _, h := range history {
		if h.Role == model.RoleUser {
			parts = append(parts, h.Content)
		}
	}
	parts = append(parts, message)
	return strings.Join(parts, " ")
}

// UserPrompt is the final user turn carrying context and question
func UserPrompt(context, message string) string {
	return fmt.Sprintf("Contexte documentaire :\n%s\n\nQuestion de l'utilisateur : %s", context, message)
}
