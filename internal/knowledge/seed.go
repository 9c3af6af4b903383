package knowledge

import "context"

// seedDocuments is a small built-in help corpus so the knowledge agent can
// answer product questions without a crawler run.
var seedDocuments = []Document{
	{
		ID:    "card-machine-fees",
		Title: "InfinitePay card machine fees",
		URL:   "https://ajuda.infinitepay.io/pt-BR/articles/card-machine-fees",
		Content: "InfinitePay card machine fees vary by plan and card brand. " +
			"Debit transactions start at 0.75% and credit transactions at 2.69%. " +
			"Installment payments carry an additional rate per installment. " +
			"There is no monthly rental fee for the card machine.",
	},
	{
		ID:    "pix-transfers",
		Title: "Receiving payments with Pix",
		URL:   "https://ajuda.infinitepay.io/pt-BR/articles/pix-transfers",
		Content: "Pix payments received through InfinitePay are free of charge and " +
			"settle instantly, every day of the week. You can generate a Pix QR code " +
			"from the app or the card machine.",
	},
	{
		ID:    "account-setup",
		Title: "Creating and configuring your account",
		URL:   "https://ajuda.infinitepay.io/pt-BR/articles/account-setup",
		Content: "To create an InfinitePay account you need a CPF or CNPJ, a phone " +
			"number, and a bank account for settlement. Account setup takes a few " +
			"minutes and approval usually completes within one business day.",
	},
	{
		ID:    "payment-links",
		Title: "Selling with payment links",
		URL:   "https://ajuda.infinitepay.io/pt-BR/articles/payment-links",
		Content: "Payment links let you sell remotely without a card machine. Create " +
			"a link in the app, share it with your customer, and receive credit or " +
			"Pix payments. Link sales support installments up to 12x.",
	},
	{
		ID:    "settlement-schedule",
		Title: "Settlement schedule and receiving your money",
		URL:   "https://ajuda.infinitepay.io/pt-BR/articles/settlement-schedule",
		Content: "Credit card sales settle in one business day by default. You can " +
			"also enable instant settlement for eligible accounts. Settlement goes " +
			"to your InfinitePay wallet or a registered bank account.",
	},
}

// Seed ingests the built-in corpus and returns the number of documents
// successfully indexed.
func (ix *Index) Seed(ctx context.Context) int {
	count := 0
	for _, doc := range seedDocuments {
		if _, err := ix.Ingest(ctx, doc); err != nil {
			ix.logger.Error().Err(err).Str("title", doc.Title).Msg("failed to seed document")
			continue
		}
		count++
	}
	return count
}
