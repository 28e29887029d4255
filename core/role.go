package core

// RoleProfile is the static persona of an NPC. All fields are free-form text
// in whatever language the game speaks; they feed the persona prompt and the
// ambient scene prompts verbatim.
type RoleProfile struct {
	Name        string `json:"name" yaml:"name"`
	Title       string `json:"title" yaml:"title"`
	Location    string `json:"location" yaml:"location"`
	Activity    string `json:"activity" yaml:"activity"`
	Personality string `json:"personality" yaml:"personality"`
	Expertise   string `json:"expertise" yaml:"expertise"`
	Style       string `json:"style" yaml:"style"`
	Hobbies     string `json:"hobbies" yaml:"hobbies"`
}
