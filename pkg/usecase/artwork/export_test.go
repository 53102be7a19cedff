package artwork

var (
	IsTokenLimitError = isTokenLimitError
	CompressHistory   = compressHistory
	CleanJSONResponse = cleanJSONResponse
)
