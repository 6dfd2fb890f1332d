package lgbm

import (
	"bufio"
	"os"
)

// ForestFromFile loads a LightGBM text-format model file and parses it
// into a Forest ready for BuildModule/Compile.
func ForestFromFile(filename string) (*Forest, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ForestFromReader(bufio.NewReader(file))
}

// ForestFromReader loads a LightGBM text-format model from a buffered
// reader and parses it into a Forest ready for BuildModule/Compile.
func ForestFromReader(reader *bufio.Reader) (*Forest, error) {
	return parseForest(reader)
}
