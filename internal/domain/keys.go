package domain

// Blob keys inside one install namespace.
const (
	KeyUser        = "olo_user_data"
	KeyAllUsers    = "olo_all_users_list"
	KeyTasks       = "olo_tasks_data"
	KeyWithdrawals = "olo_withdrawals_data"
	KeyConfig      = "olo_app_config"
	KeyAdmin       = "olo_admin_logged_in"
)
