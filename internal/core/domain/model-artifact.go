package domain

// LocalModelFile is the fixed artifact name. The spelling is what downstream
// steps already look up, so it must not be corrected.
const LocalModelFile = "samle.pkl"

// DefaultOutputDir is where the artifact is written relative to the working directory.
const DefaultOutputDir = "outputs"

// TrainedModel is the serializable result of a training call.
type TrainedModel map[string]interface{}

type TrainingInput struct {
	DataDir           string
	InputCSVFile      string
	SparsityThreshold float64
}
