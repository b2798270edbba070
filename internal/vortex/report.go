package vortex

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const (
	reportSuffix          = ".json"
	encryptedReportSuffix = ".json.age"
)

// ReportKey returns the archive key of a run's report.
func ReportKey(runID string, encrypted bool) string {
	if encrypted {
		return runID + encryptedReportSuffix
	}
	return runID + reportSuffix
}

// EncodeReport renders a result as indented JSON.
func EncodeReport(result *AnalysisResult) ([]byte, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	return data, nil
}

// DecodeReport parses a report produced by EncodeReport.
func DecodeReport(r io.Reader) (*AnalysisResult, error) {
	var result AnalysisResult
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	return &result, nil
}

// ExportReport writes the stored report of a run to every configured
// archive, encrypting it first when encrypt is set. Returns the archive key.
func (s *Service) ExportReport(runID string, encrypt bool) (string, error) {
	if s.store == nil {
		return "", fmt.Errorf("no case store configured")
	}
	if len(s.archives) == 0 {
		return "", fmt.Errorf("no archives configured")
	}

	result, err := s.store.LoadAnalysis(runID)
	if err != nil {
		return "", fmt.Errorf("loading analysis: %w", err)
	}
	if result == nil {
		return "", fmt.Errorf("run has no stored analysis: %s", runID)
	}

	data, err := EncodeReport(result)
	if err != nil {
		return "", err
	}
	if encrypt {
		if s.encryptor == nil || !s.encryptor.IsConfigured() {
			return "", fmt.Errorf("encryption requested but no keys are configured")
		}
		var buf bytes.Buffer
		if err := s.encryptor.Encrypt(bytes.NewReader(data), &buf); err != nil {
			return "", fmt.Errorf("encrypting report: %w", err)
		}
		data = buf.Bytes()
	}

	key := ReportKey(runID, encrypt)
	for _, a := range s.archives {
		if err := a.PutReport(key, bytes.NewReader(data), int64(len(data))); err != nil {
			return "", fmt.Errorf("storing report in %s: %w", a.Name(), err)
		}
		s.logger.Info("report exported", "run", runID, "archive", a.Name(), "key", key, "bytes", len(data))
	}
	return key, nil
}

// ReportEncrypted reports whether any archive holds an encrypted report for runID.
func (s *Service) ReportEncrypted(runID string) bool {
	for _, a := range s.archives {
		if err := a.GetReport(ReportKey(runID, true), io.Discard); err == nil {
			return true
		}
	}
	return false
}

// FetchReport writes a run's report from the first archive that holds it
// to w. An encrypted report requires decryptCtx.
func (s *Service) FetchReport(runID string, w io.Writer, decryptCtx DecryptionContext) error {
	for _, a := range s.archives {
		var buf bytes.Buffer
		err := a.GetReport(ReportKey(runID, true), &buf)
		if err == nil {
			if decryptCtx == nil {
				return fmt.Errorf("report is encrypted: a decryption context is required")
			}
			if err := decryptCtx.Decrypt(&buf, w); err != nil {
				return fmt.Errorf("decrypting report: %w", err)
			}
			return nil
		}
		if !errors.Is(err, ErrArchiveNotFound) {
			return fmt.Errorf("reading from %s: %w", a.Name(), err)
		}

		buf.Reset()
		err = a.GetReport(ReportKey(runID, false), &buf)
		if err == nil {
			_, err = io.Copy(w, &buf)
			return err
		}
		if !errors.Is(err, ErrArchiveNotFound) {
			return fmt.Errorf("reading from %s: %w", a.Name(), err)
		}
	}
	return fmt.Errorf("report for run %s: %w", runID, ErrArchiveNotFound)
}
