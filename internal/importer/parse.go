package importer

// Parse: formatı tespit eder ve uygun çıkarıcıyı çalıştırır.
// Dönen uyarılar içe aktarımı durdurmaz; error sadece *FormatError olabilir.
func Parse(rows []RawRow, batchID string) (ParseResult, []error, error) {
	source, err := DetectFormat(rows)
	if err != nil {
		return nil, nil, err
	}

	switch source {
	case SourceRegistry:
		batch, warnings, err := ExtractRegistry(rows, batchID)
		if err != nil {
			return nil, warnings, err
		}
		return RegistryResult{Batch: batch}, warnings, nil
	default:
		orders, warnings := ExtractDetailed(rows)
		return DetailedResult{Orders: orders}, warnings, nil
	}
}
