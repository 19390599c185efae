package models

const (
	ContextSeparator  = "\n\n---\n\n"
	SubQueryLabel     = "Sub-question: "
	AnswerMarker      = "Answer:"
	ReasoningMarker   = "Reasoning:"
	DefaultExcerptLen = 500
)

var DefaultCompanies = []string{"Google", "Microsoft", "NVIDIA"}

var (
	// DecomposePromptTemplate takes the default company list and the question.
	DecomposePromptTemplate = "Analyze the given financial question and break it down into the minimal sub-queries needed to answer it.\n\n" +
		"Rules:\n" +
		"1. Only extract years that are explicitly mentioned in the question\n" +
		"2. Only extract companies that are explicitly mentioned or implied by the question\n" +
		"3. If the question asks about 'all companies' or 'which company', include %s\n" +
		"4. If the question is about a specific company and year, don't break it down further\n" +
		"5. For comparisons between years, create separate sub-queries for each year mentioned\n" +
		"6. Use format: '<Company> <metric> <year>' for each sub-query\n\n" +
		"Examples:\n" +
		"- 'Which company had the highest operating margin in 2023?' → ['Microsoft operating margin 2023', 'Google operating margin 2023', 'NVIDIA operating margin 2023']\n" +
		"- 'How did NVIDIA revenue grow from 2022 to 2023?' → ['NVIDIA revenue 2022', 'NVIDIA revenue 2023']\n" +
		"- 'What was Microsoft revenue in 2023?' → [] (don't break down, already specific)\n\n" +
		"Return only valid JSON with key 'sub_queries'.\n" +
		"Question: %s\n"

	// SynthesisPromptTemplate takes the question and the joined context blocks.
	SynthesisPromptTemplate = "Question: %s\n\n" +
		"Context from 10-K filings:\n%s\n\n" +
		"Based on the context above, provide a clear and accurate answer to the question.\n" +
		"Then explain your reasoning for how you arrived at this answer.\n\n" +
		"Format your response exactly as:\n" +
		"Answer: [your answer here]\n" +
		"Reasoning: [your reasoning here]"

	StructuredSynthesisPromptTemplate = "Question: %s\n\n" +
		"Context from 10-K filings:\n%s\n\n" +
		"Based on the context above, provide a clear and accurate answer to the question.\n" +
		"Then explain your reasoning for how you arrived at this answer.\n\n" +
		"Return only valid JSON with keys 'answer' and 'reasoning'."
)
