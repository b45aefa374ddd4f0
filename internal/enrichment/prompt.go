package enrichment

import "fmt"

const systemPrompt = `You are a professional film and TV series database. Answer with IMDb-style data as a single JSON object and nothing else.`

// userPrompt asks for the fixed record schema for one title
func userPrompt(title string) string {
	return fmt.Sprintf(`Find the details of %q. Respond with JSON exactly in this shape:
{
  "title": "official title",
  "mediaKind": "Movie" or "Series",
  "director": "director or creator",
  "rating": 8.5,
  "durationLabel": "120 min",
  "category": "genre",
  "seasonCount": 5,
  "totalEpisodes": 60,
  "summary": "one paragraph plot summary",
  "imageUrl": "poster URL"
}
Use 0 for seasonCount and totalEpisodes when the title is a movie. rating is on a 0-10 scale.`, title)
}
