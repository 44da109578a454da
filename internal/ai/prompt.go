package ai

import "fmt"

// maxAnalyzeChars caps how much document text is sent for analysis.
const maxAnalyzeChars = 8000

const chatSystemPrompt = `You are DocuMind, an AI assistant specialized in document processing, analysis, and generation.

Your capabilities include:
1. Analyzing documents to extract key information, themes, and insights
2. Summarizing documents of various types and lengths
3. Generating professional documents based on user requirements
4. Answering questions about document structure, formatting, and best practices
5. Providing guidance on documentation standards and templates

When responding to users:
- Be helpful, professional, and concise
- Provide specific, actionable advice
- When generating or analyzing documents, follow industry best practices
- If you don't know something, admit it rather than making up information
- For document generation, ask clarifying questions if the user's requirements are vague

Always maintain a helpful, professional tone.`

const analyzeSystemPrompt = `You are an expert document analyzer. Extract key information, summarize content, and identify main themes.`

const generateSystemPrompt = `You are an expert document creator. Generate professional, well-structured documents based on user requirements.`

// truncateContent limits content to maxAnalyzeChars, marking the cut with an ellipsis.
func truncateContent(content string) string {
	if len(content) > maxAnalyzeChars {
		return content[:maxAnalyzeChars] + "..."
	}
	return content
}

func buildAnalyzePrompt(content string) string {
	return fmt.Sprintf(`Analyze the following document and provide:
1. A brief summary (3-5 sentences)
2. Key points (bullet points)
3. Main themes or topics
4. Any action items or next steps mentioned

Document content:
%s`, truncateContent(content))
}

func buildGeneratePrompt(documentType, title, description string) string {
	return fmt.Sprintf(`Create a %s document with the title %q based on the following description:

%s

Generate a complete, professional document with appropriate sections, formatting, and content.
Format the response in Markdown.`, documentType, title, description)
}
