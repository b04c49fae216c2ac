package platform

// registry maps platform names to their constraints.
// Briefs are versioned with the binary; changing them requires a rebuild.
var registry = map[string]Constraints{
	"linkedin": {
		DisplayName:   "LinkedIn",
		MaxCharacters: 3000,
		HashtagLimit:  5,
		Voice:         "professional",
		Format:        "post",
		Description:   "a professional LinkedIn post",
		Shape:         ShapeText,
		GenerationBrief: []string{
			"Open with an attention-grabbing hook",
			"Deliver valuable content and insights",
			"Close with a call to action",
			"Add relevant hashtags (#)",
			"Keep it professional but approachable",
		},
		RecyclingBrief: []string{
			"Focus on professional value and networking",
			"Include valuable insights",
			"Use appropriate business language",
			"End with a professional call to action",
		},
	},
	"twitter": {
		DisplayName:   "Twitter",
		MaxCharacters: 280,
		HashtagLimit:  3,
		Voice:         "conversational",
		Format:        "thread",
		Description:   "a Twitter thread of 5 tweets",
		Shape:         ShapeThread,
		GenerationBrief: []string{
			"Grab attention immediately",
			"Convey the key message",
			"Include 2-3 relevant hashtags",
			"Make it easy to share",
			"Stay within 280 characters",
		},
		RecyclingBrief: []string{
			"Write 5 connected tweets as a thread",
			"Each tweet must stand alone while following the thread",
			"Number the tweets (1/5, 2/5, ...)",
			"Include engagement hooks",
			"Use at most 2-3 strategic hashtags per tweet, chosen for engagement and retweet potential",
			"Avoid generic or spammy hashtags",
			"Check that no tweet exceeds 280 characters including hashtags",
		},
	},
	"instagram": {
		DisplayName:   "Instagram",
		MaxCharacters: 2200,
		HashtagLimit:  30,
		Voice:         "visual",
		Format:        "caption",
		Description:   "a visually focused Instagram caption",
		Shape:         ShapeText,
		GenerationBrief: []string{
			"Start with a visual or emotional hook",
			"Tell a short story",
			"Use fitting emojis",
			"End with a call to action",
			"Add strategic hashtags (#)",
		},
		RecyclingBrief: []string{
			"Visual and emotional focus",
			"Use fitting emojis",
			"Use 8-10 popular and niche hashtags per post",
			"Avoid generic hashtags such as #love or #happiness",
			"Prefer content-specific hashtags: 3-4 popular, 3-4 niche, 2-3 branded",
			"Call to action for engagement",
			"Check that the caption does not exceed 2200 characters including hashtags",
		},
	},
	"facebook": {
		DisplayName:   "Facebook",
		MaxCharacters: 500,
		HashtagLimit:  8,
		Voice:         "conversational",
		Format:        "post",
		Description:   "a conversational Facebook post",
		Shape:         ShapeText,
		GenerationBrief: []string{
			"Be conversational and personal",
			"Invite comments and engagement",
			"Include a question or call to action",
			"Match the tone to the audience",
			"Keep it easy to read",
		},
		RecyclingBrief: []string{
			"Conversational and friendly tone",
			"Ask questions that drive engagement",
			"Invite comments",
			"Include personal touches",
		},
	},
	"blog": {
		DisplayName:   "Blog",
		MaxCharacters: 1500,
		Voice:         "educational",
		Format:        "excerpt",
		Description:   "a blog post excerpt",
		Shape:         ShapeText,
		GenerationBrief: []string{
			"Give it a compelling title",
			"Write an engaging introduction",
			"Develop 3-4 key points",
			"Conclude with a call to action",
			"Use a clear structure with subheadings",
		},
	},
	"email": {
		DisplayName:   "Email",
		MaxCharacters: 10000,
		Voice:         "professional",
		Format:        "newsletter",
		Description:   "an email newsletter with a subject line",
		Shape:         ShapeEmail,
		RecyclingBrief: []string{
			"Professional B2B newsletter structure",
			"Subject: a compelling, relevant line",
			`Greeting: always open with "Hello {{name}},"`,
			"Intro: a personalized hook of 1-2 sentences",
			"Body: 2-3 clear, concise, business-oriented paragraphs",
			`Call to action: clear and specific (e.g. "Reply to this email to...", "Request your demo here")`,
			`Signature: "Best regards, [Name/Team]" followed by {{company}}`,
			"No generic phrases or informal sign-offs",
		},
	},
	"quotes": {
		DisplayName:   "Quotes",
		MaxCharacters: 150,
		Voice:         "inspirational",
		Format:        "quote",
		Description:   "inspirational quotes extracted from the content",
		Shape:         ShapeQuotes,
		RecyclingBrief: []string{
			"Extract 3-5 inspirational quotes",
			"Each quote must be memorable and between 50 and 150 characters",
			"Return them as an array",
			"Do not repeat phrases",
		},
	},
}
