package leetcode

import "encoding/json"

const dailyQuestionQuery = `query questionOfToday {
  activeDailyCodingChallengeQuestion {
    date
    link
    question {
      title
      titleSlug
      difficulty
      hints
      acRate
      topicTags { name }
    }
  }
}`

const recentSubmissionsQuery = `query recentAcSubmissions($username: String!, $limit: Int!) {
  recentAcSubmissionList(username: $username, limit: $limit) {
    titleSlug
    timestamp
  }
}`

type graphQLRequest struct {
	OperationName string         `json:"operationName,omitempty"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type dailyData struct {
	Challenge *struct {
		Date     string `json:"date"`
		Link     string `json:"link"`
		Question struct {
			Title      string   `json:"title"`
			TitleSlug  string   `json:"titleSlug"`
			Difficulty string   `json:"difficulty"`
			Hints      []string `json:"hints"`
			AcRate     float64  `json:"acRate"`
			TopicTags  []struct {
				Name string `json:"name"`
			} `json:"topicTags"`
		} `json:"question"`
	} `json:"activeDailyCodingChallengeQuestion"`
}

type submissionsData struct {
	List []struct {
		TitleSlug string `json:"titleSlug"`
		// Unix seconds, sent as a string.
		Timestamp string `json:"timestamp"`
	} `json:"recentAcSubmissionList"`
}
