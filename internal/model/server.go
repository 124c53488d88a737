package model

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// Server holds a loaded ONNX session. It is read-only after NewServer returns
// and Classify may be called from many goroutines at once.
type Server struct {
	session  *ort.DynamicAdvancedSession
	Metadata Metadata
	ownsEnv  bool
}

type ServerOptions struct {
	// SharedLibraryPath points at libonnxruntime when it is not on the default
	// search path.
	SharedLibraryPath string
}

func NewServer(modelPath string, metadata Metadata, opts ServerOptions) (*Server, error) {
	ownsEnv := !ort.IsInitialized()
	if ownsEnv {
		if opts.SharedLibraryPath != "" {
			ort.SetSharedLibraryPath(opts.SharedLibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, classifyLoadError(fmt.Errorf("failed to initialize ONNX environment: %w", err))
		}
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{metadata.InputName}, []string{metadata.OutputName}, nil)
	if err != nil {
		if ownsEnv {
			ort.DestroyEnvironment()
		}
		return nil, classifyLoadError(fmt.Errorf("failed to create ONNX session: %w", err))
	}

	return &Server{
		session:  session,
		Metadata: metadata,
		ownsEnv:  ownsEnv,
	}, nil
}

// Predict runs the model on an encoded image and returns every class score.
func (s *Server) Predict(data []byte) (*Prediction, error) {
	inputData, err := Preprocess(data, s.Metadata)
	if err != nil {
		return nil, err
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(s.Metadata.InputShape...), inputData)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(s.Metadata.OutputShape...))
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	if err := s.session.Run([]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor}); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	outputData := outputTensor.GetData()
	maxIdx, maxVal := topClass(outputData, len(s.Metadata.Classes))
	if maxIdx < 0 {
		return nil, fmt.Errorf("inference failed: model produced no scores")
	}

	predictions := make(map[string]float32, len(s.Metadata.Classes))
	for i, val := range outputData {
		if i < len(s.Metadata.Classes) {
			predictions[s.Metadata.Classes[i]] = val
		}
	}

	return &Prediction{
		Class:       s.Metadata.Classes[maxIdx],
		Confidence:  maxVal,
		Predictions: predictions,
	}, nil
}

// Classify returns only the top label for an encoded image.
func (s *Server) Classify(data []byte) (string, error) {
	prediction, err := s.Predict(data)
	if err != nil {
		return "", err
	}
	return prediction.Class, nil
}

func (s *Server) Close() {
	if s.session != nil {
		s.session.Destroy()
	}
	if s.ownsEnv {
		ort.DestroyEnvironment()
	}
}
