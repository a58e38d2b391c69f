package advisor

import (
	"fmt"
	"strconv"
	"strings"

	"caisse/internal/core"
)

const fallbackAdvice = "Je ne peux pas fournir de conseil pour le moment."

const adviceSystemPrompt = `Tu es un conseiller financier expert spécialisé dans l'aide aux PME africaines, particulièrement à Lubumbashi (RDC).
Tu comprends les défis locaux comme les fluctuations monétaires, les moyens de paiement mobiles (Airtel Money, M-Pesa), et les réalités du commerce local.

Réponds toujours en français et donne des conseils pratiques et réalisables. Ton ton est amical mais professionnel.

Format ta réponse en JSON avec cette structure:
{
  "advice": "conseil principal détaillé",
  "actionItems": ["action 1", "action 2", "action 3"],
  "insights": ["insight 1", "insight 2"],
  "confidence": 0.85
}`

const trendsPromptTemplate = `Analyse ces données financières mensuelles d'une PME à Lubumbashi et identifie les tendances, recommandations et facteurs de risque.

Données: %s

Réponds en JSON avec cette structure:
{
  "trends": ["tendance 1", "tendance 2"],
  "recommendations": ["recommandation 1", "recommandation 2"],
  "riskFactors": ["risque 1", "risque 2"]
}`

// businessContext names the shop for the advisor.
func businessContext(u core.User) string {
	name := u.BusinessLabel()
	if name == "" {
		name = "Non spécifiée"
	}
	return "Entreprise: " + name
}

func adviceUserPrompt(question string, snap *Snapshot, context string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\n", question)

	if snap != nil {
		b.WriteString("Données financières actuelles:\n")
		fmt.Fprintf(&b, "- Revenus: %s FC\n", formatFC(snap.Revenue))
		fmt.Fprintf(&b, "- Dépenses: %s FC\n", formatFC(snap.Expenses))
		fmt.Fprintf(&b, "- Bénéfice: %s FC\n", formatFC(snap.Profit))
		fmt.Fprintf(&b, "- Factures en attente: %d\n", snap.PendingInvoices)
		fmt.Fprintf(&b, "- Articles en stock faible: %d\n\n", snap.LowStockItems)
		b.WriteString("Transactions récentes:\n")
		for _, t := range snap.RecentTransactions {
			label := "Dépense"
			if t.Type == string(core.TxIncome) {
				label = "Revenus"
			}
			fmt.Fprintf(&b, "- %s (%s): %s FC - %s\n", label, t.Category, formatFC(t.Amount), t.Description)
		}
		b.WriteString("\n")
	}

	if context != "" {
		fmt.Fprintf(&b, "Contexte additionnel: %s\n\n", context)
	}
	b.WriteString("Donne des conseils spécifiques et pratiques pour améliorer la situation financière.")
	return b.String()
}

// formatFC prints an amount with thousands separators, e.g. 1,234,567.5.
func formatFC(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + b.String()
}
