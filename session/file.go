package session

import "os"

func loadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (s *Session) saveToFile() error {
	return os.WriteFile(s.saveFile, s.Serialize(), 0o644)
}
