package skills

import (
	"encoding/json"
	"fmt"
	"os"
)

// Option is a single quiz answer choice, tagged with the skill keywords
// it signals.
type Option struct {
	Text     string   `json:"text"`
	Keywords []string `json:"keywords"`
}

// Question is a quiz question with a fixed set of options.
type Question struct {
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// Taxonomy is the static question/keyword table the extractor scores
// against. It is loaded once at startup and never mutated.
type Taxonomy struct {
	Questions []Question `json:"questions"`
}

// LoadTaxonomy reads a taxonomy override from a JSON file. An empty path
// returns the built-in taxonomy.
func LoadTaxonomy(path string) (Taxonomy, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Taxonomy{}, fmt.Errorf("reading taxonomy file: %w", err)
	}
	var t Taxonomy
	if err := json.Unmarshal(data, &t); err != nil {
		return Taxonomy{}, fmt.Errorf("parsing taxonomy file %s: %w", path, err)
	}
	if len(t.Questions) == 0 {
		return Taxonomy{}, fmt.Errorf("taxonomy file %s contains no questions", path)
	}
	return t, nil
}

// Vocabulary returns every distinct keyword in the taxonomy, in the order
// it first appears. Used by the free-text extractor.
func (t Taxonomy) Vocabulary() []string {
	var vocab []string
	seen := make(map[string]bool)
	for _, q := range t.Questions {
		for _, o := range q.Options {
			for _, kw := range o.Keywords {
				if !seen[kw] {
					seen[kw] = true
					vocab = append(vocab, kw)
				}
			}
		}
	}
	return vocab
}

// Default returns the built-in skills quiz taxonomy.
func Default() Taxonomy {
	return Taxonomy{Questions: []Question{
		{
			Text: "What kind of projects excite you the most?",
			Options: []Option{
				{Text: "Designing interactive UIs and animations", Keywords: []string{"react", "css"}},
				{Text: "Building REST APIs and database models", Keywords: []string{"nodejs", "mongodb"}},
				{Text: "Developing AI models or prediction systems", Keywords: []string{"machine learning", "pytorch"}},
				{Text: "Finding and exploiting security flaws", Keywords: []string{"cybersecurity", "pentesting"}},
			},
		},
		{
			Text: "Which of these tools/technologies have you worked with or want to explore?",
			Options: []Option{
				{Text: "React, Tailwind CSS", Keywords: []string{"react", "css"}},
				{Text: "Express, MongoDB", Keywords: []string{"express", "mongodb"}},
				{Text: "Docker, GitHub Actions", Keywords: []string{"docker", "ci/cd"}},
				{Text: "Pandas, Matplotlib", Keywords: []string{"pandas", "data science"}},
			},
		},
		{
			Text: "Which best describes your ideal role?",
			Options: []Option{
				{Text: "Full-stack web developer", Keywords: []string{"fullstack", "mern"}},
				{Text: "Cybersecurity researcher", Keywords: []string{"cybersecurity", "ctf"}},
				{Text: "Mobile app developer", Keywords: []string{"flutter", "kotlin"}},
				{Text: "Game developer", Keywords: []string{"unity", "gamedev"}},
			},
		},
		{
			Text: "What do you enjoy solving the most?",
			Options: []Option{
				{Text: "UI/UX and user interaction problems", Keywords: []string{"css", "react"}},
				{Text: "Backend scaling and performance", Keywords: []string{"nodejs", "express"}},
				{Text: "Classification or clustering challenges", Keywords: []string{"ai", "machine learning"}},
				{Text: "Capture The Flag puzzles or exploits", Keywords: []string{"ctf", "pentesting"}},
			},
		},
		{
			Text: "Your preferred development environment?",
			Options: []Option{
				{Text: "Visual Studio Code with Next.js", Keywords: []string{"nextjs", "fullstack"}},
				{Text: "Jupyter Notebooks and Colab", Keywords: []string{"data science", "pandas"}},
				{Text: "Android Studio or Flutter", Keywords: []string{"flutter", "android"}},
				{Text: "Kali Linux and Burp Suite", Keywords: []string{"cybersecurity", "pentesting"}},
			},
		},
		{
			Text: "Which of these repositories would you contribute to?",
			Options: []Option{
				{Text: "A Web3 DApp written in Solidity", Keywords: []string{"blockchain", "solidity"}},
				{Text: "A game engine built in Unity", Keywords: []string{"unity", "gamedev"}},
				{Text: "A scalable REST API boilerplate", Keywords: []string{"nodejs", "backend"}},
				{Text: "A data visualization dashboard", Keywords: []string{"pandas", "data science"}},
			},
		},
		{
			Text: "Choose a task you'd enjoy doing for a hackathon:",
			Options: []Option{
				{Text: "Making the frontend look smooth and responsive", Keywords: []string{"react", "tailwind"}},
				{Text: "Securing the app and performing pentests", Keywords: []string{"cybersecurity", "ctf"}},
				{Text: "Building a chatbot with ML", Keywords: []string{"machine learning", "ai"}},
				{Text: "Automating CI/CD for deployments", Keywords: []string{"docker", "ci/cd"}},
			},
		},
		{
			Text: "Which of these best represents your learning focus in the last 3 months?",
			Options: []Option{
				{Text: "Building full-stack apps", Keywords: []string{"fullstack", "mern"}},
				{Text: "Preparing for CTFs", Keywords: []string{"cybersecurity", "pentesting"}},
				{Text: "Understanding GANs and neural networks", Keywords: []string{"ai", "pytorch"}},
				{Text: "Creating mobile UIs", Keywords: []string{"flutter", "android"}},
			},
		},
		{
			Text: "Which of these would be your GitHub bio?",
			Options: []Option{
				{Text: "Frontend developer passionate about design systems", Keywords: []string{"react", "css"}},
				{Text: "DevOps engineer automating deployments", Keywords: []string{"docker", "ci/cd"}},
				{Text: "Data enthusiast diving into real-world datasets", Keywords: []string{"data science", "numpy"}},
				{Text: "Security researcher and ethical hacker", Keywords: []string{"pentesting", "cybersecurity"}},
			},
		},
		{
			Text: "Which domain would you teach to others confidently?",
			Options: []Option{
				{Text: "React and frontend frameworks", Keywords: []string{"react", "frontend"}},
				{Text: "APIs and backend logic", Keywords: []string{"nodejs", "express"}},
				{Text: "Machine learning and data preprocessing", Keywords: []string{"machine learning", "pandas"}},
				{Text: "Bug bounty and network security", Keywords: []string{"bug bounty", "cybersecurity"}},
			},
		},
	}}
}
