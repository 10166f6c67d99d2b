package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrGraderAccessOnly  ErrCode = "GRADER_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrInvalidAnswer  ErrCode = "INVALID_ANSWER"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Exam-specific ─────────────────────────────────────────────────
	ErrExamNotAvailable    ErrCode = "EXAM_NOT_AVAILABLE"
	ErrTimeWindowClosed    ErrCode = "TIME_WINDOW_CLOSED"
	ErrInvalidAccessToken  ErrCode = "INVALID_ACCESS_TOKEN"
	ErrMaxAttemptsReached  ErrCode = "MAX_ATTEMPTS_REACHED"
	ErrNoActiveSession     ErrCode = "NO_ACTIVE_SESSION"
	ErrAttemptInProgress   ErrCode = "ATTEMPT_IN_PROGRESS"
	ErrScoreExceedsMaximum ErrCode = "SCORE_EXCEEDS_MAXIMUM"
	ErrResultNotReady      ErrCode = "RESULT_NOT_READY"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "Token autentikasi diperlukan."
	case ErrTokenInvalid:
		return "Token autentikasi tidak valid."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrStudentAccessOnly:
		return "Sumber daya ini terbatas untuk siswa."
	case ErrGraderAccessOnly:
		return "Sumber daya ini terbatas untuk penilai."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validasi gagal. Silakan periksa masukan Anda."
	case ErrInvalidID:
		return "Format ID tidak valid."
	case ErrInvalidPayload:
		return "Payload permintaan tidak valid."
	case ErrInvalidAnswer:
		return "Format jawaban tidak sesuai dengan jenis soal."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Sumber daya tidak ditemukan."
	case ErrConflict:
		return "Sumber daya sudah ada."

	// ─── Exam-specific ─────────────────────────────────────────────────
	case ErrExamNotAvailable:
		return "Ujian ini saat ini tidak tersedia."
	case ErrTimeWindowClosed:
		return "Waktu ujian di luar jadwal yang ditentukan."
	case ErrInvalidAccessToken:
		return "Token masuk ujian tidak valid."
	case ErrMaxAttemptsReached:
		return "Batas jumlah percobaan ujian telah tercapai."
	case ErrNoActiveSession:
		return "Tidak ada sesi ujian yang sedang berlangsung."
	case ErrAttemptInProgress:
		return "Sesi ujian masih berlangsung."
	case ErrScoreExceedsMaximum:
		return "Nilai melebihi skor maksimum soal."
	case ErrResultNotReady:
		return "Hasil ujian belum tersedia."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Terlalu banyak permintaan. Silakan coba lagi nanti."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Terjadi kesalahan server internal."
	default:
		return "Terjadi kesalahan yang tidak terduga."
	}
}
