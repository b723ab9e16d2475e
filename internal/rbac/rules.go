package rbac

const (
	RoleLearner = "learner"
	RoleAuthor  = "author"
	RoleAdmin   = "admin"
)

const (
	PermLessonView    = "lesson:view"
	PermLessonCreate  = "lesson:create"
	PermAttemptCreate = "attempt:create"
	PermAttemptPlay   = "attempt:play"
	PermAttemptOwn    = "attempt:view-own"
	PermAttemptAll    = "attempt:view-all"
)

// Default policy. Learners play lessons; authors publish them and can read
// every attempt.
var RolePermissions = map[string][]string{
	RoleLearner: {
		PermLessonView,
		PermAttemptCreate,
		PermAttemptPlay,
		PermAttemptOwn,
	},
	RoleAuthor: {
		"lesson:*",
		"attempt:*",
	},
	RoleAdmin: {
		"*", // everything
	},
}
