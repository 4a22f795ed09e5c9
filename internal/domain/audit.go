package domain

// Audit categories
const (
	AuditCategoryMining     = "mining"
	AuditCategoryTask       = "task"
	AuditCategoryWithdrawal = "withdrawal"
	AuditCategoryReferral   = "referral"
	AuditCategoryAdmin      = "admin"
)

// Audit actions
const (
	AuditActionMiningStart = "mining_start"
	AuditActionMiningClaim = "mining_claim"

	AuditActionTaskVerify   = "task_verify"
	AuditActionTaskComplete = "task_complete"

	AuditActionWithdrawRequest = "withdraw_request"
	AuditActionWithdrawApprove = "withdraw_approve"
	AuditActionWithdrawReject  = "withdraw_reject"

	AuditActionReferralCredit = "referral_credit"

	AuditActionAdminLogin         = "admin_login"
	AuditActionAdminLoginFailed   = "admin_login_failed"
	AuditActionAdminLogout        = "admin_logout"
	AuditActionAdminBanUser       = "admin_ban_user"
	AuditActionAdminUnbanUser     = "admin_unban_user"
	AuditActionAdminAdjustBalance = "admin_adjust_balance"
	AuditActionAdminCreateTask    = "admin_create_task"
	AuditActionAdminDeleteTask    = "admin_delete_task"
	AuditActionAdminUpdateConfig  = "admin_update_config"
)
