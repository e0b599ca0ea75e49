package cache

import "strings"

const (
	GlobalKeyPrefix = "staffquiz"

	serviceTraining = "training"
)

// GenerateCacheKey generates a cache key for a given service, object type, and identifier.
// If paramsKey are provided, they are joined by "_" and appended to the cache key.
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}

// PoolKey caches the active question ids of a quiz.
func PoolKey(quizID string) string {
	return GenerateCacheKey(serviceTraining, "pool", quizID)
}

// SubmitLockKey guards one submission per staff member and quiz.
func SubmitLockKey(staffID, quizID string) string {
	return GenerateCacheKey(serviceTraining, "submitlock", staffID, quizID)
}

// SessionKey stores a started attempt.
func SessionKey(sessionID string) string {
	return GenerateCacheKey(serviceTraining, "session", sessionID)
}

// OpenSessionKey points at the open attempt of a staff member for a quiz.
func OpenSessionKey(staffID, quizID string) string {
	return GenerateCacheKey(serviceTraining, "opensession", staffID, quizID)
}
