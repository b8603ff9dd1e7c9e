package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. Every argument is passed pre-formatted as a string so ids
// and amounts are printed verbatim in every locale.
const (
	BindNotConfigured  = "bind.not_configured"
	FindNotConfigured  = "find.not_configured"
	OrderNotFound      = "order.not_found"
	OrderAmbiguous     = "order.ambiguous"
	BindAlreadySelf    = "bind.already_self"
	BindAlreadyOther   = "bind.already_other"
	BindOK             = "bind.ok"
	FindOK             = "find.ok"
	ConfigUnknownKey   = "config.unknown_key"
	ConfigInvalidValue = "config.invalid_value"
	ConfigUpdated      = "config.updated"
	ConfigForbidden    = "config.forbidden"
	InternalError      = "internal_error"
	Help               = "help"
	Usage              = "usage"
	UsageMissingArg    = "usage.missing_arg"
	UsageExtraArgs     = "usage.extra_args"
	UsageUnknownSub    = "usage.unknown_sub"

	NoticeNotFound     = "notice.not_found"
	NoticeNoAccount    = "notice.no_account"
	NoticeAmbiguous    = "notice.ambiguous"
	NoticeBoundOther   = "notice.bound_other"
	NoticeLevelLow     = "notice.level_low"
	NoticeLevelUnknown = "notice.level_unknown"
	SuffixRejected     = "suffix.rejected"
	SuffixManual       = "suffix.manual"
	ReasonNotFound     = "reason.not_found"
	ReasonNoAccount    = "reason.no_account"
	ReasonBoundOther   = "reason.bound_other"
	ReasonLevelTooLow  = "reason.level_too_low"
	ReasonAmbiguous    = "reason.ambiguous"
)

const helpZH = `爱发电订单绑定
afd bind|b <订单号>      绑定爱发电账号
afd find|f|check <订单号> 查询订单
afd config|c <配置项> <值> 修改本群配置 (管理员)
配置项: enable_audit, enable_auto_reject, level_required, level_required_value`

const helpEN = `AFDian order binding
afd bind|b <order>        link your AFDian account
afd find|f|check <order>  look up an order
afd config|c <key> <val>  change group settings (admins)
keys: enable_audit, enable_auto_reject, level_required, level_required_value`

var zh = map[string]string{
	BindNotConfigured:  "错误: 本群没有配置 AFDian 信息，不可使用绑定",
	FindNotConfigured:  "错误: 本群没有配置 AFDian 信息，不可使用查询",
	OrderNotFound:      "错误: 未查询到订单记录",
	OrderAmbiguous:     "错误: 查询到多条订单记录",
	BindAlreadySelf:    "你已绑定该爱发电账号: %s",
	BindAlreadyOther:   "错误: 该爱发电账号已被绑定，无法重复绑定，解绑请联系管理员",
	BindOK:             "绑定成功: %s",
	FindOK:             "查询成功:\n订单号: %s\n爱发电用户 ID: %s\n金额: %s\n状态: %s",
	ConfigUnknownKey:   "错误: 未知配置项 %s",
	ConfigInvalidValue: "错误: 配置项 %s 的值 %s 不合法",
	ConfigUpdated:      "配置项 %s 已更新为 %s",
	ConfigForbidden:    "错误: 只有群主、管理员或超级用户可以修改配置",
	InternalError:      "错误: 内部错误，请稍后重试",
	Help:               helpZH,
	Usage:              "%s\n使用指令 `afd -h` 查看帮助",
	UsageMissingArg:    "参数 %s 缺失",
	UsageExtraArgs:     "多余的参数: %s",
	UsageUnknownSub:    "未知的子命令: %s",

	NoticeNotFound:     "检测到用户 %s 的订单号已存在，但数据列表为空，需要作者 %s 自行处理，%s",
	NoticeNoAccount:    "用户 %s 的订单号 %s 不属于群聊 %s 的任何作者，%s",
	NoticeAmbiguous:    "用户 %s 的订单号 %s 查询到多条订单记录，请手动处理加入请求",
	NoticeBoundOther:   "用户 %s 的订单号校验通过，但该爱发电账号已被绑定至用户 %s，%s",
	NoticeLevelLow:     "用户 %s 的订单号校验通过，但其等级 %s 未达到群聊 %s 要求的最低等级 %s，%s",
	NoticeLevelUnknown: "用户 %s 的订单号校验通过，但无法获取其等级，请手动处理加入请求",
	SuffixRejected:     "已拒绝加入请求",
	SuffixManual:       "请手动处理加入请求",
	ReasonNotFound:     "未查询到订单记录",
	ReasonNoAccount:    "订单号不属于群聊的作者",
	ReasonBoundOther:   "该爱发电账号已被绑定至其他用户",
	ReasonLevelTooLow:  "用户等级未达到群聊要求的最低等级",
	ReasonAmbiguous:    "查询到多条订单记录",
}

var en = map[string]string{
	BindNotConfigured:  "Error: AFDian is not configured for this group, bind is unavailable",
	FindNotConfigured:  "Error: AFDian is not configured for this group, find is unavailable",
	OrderNotFound:      "Error: no order found",
	OrderAmbiguous:     "Error: multiple orders found",
	BindAlreadySelf:    "You have already bound this AFDian account: %s",
	BindAlreadyOther:   "Error: this AFDian account is bound to another member, contact an administrator to unbind",
	BindOK:             "Bound successfully: %s",
	FindOK:             "Order found:\nOrder: %s\nAFDian user ID: %s\nAmount: %s\nStatus: %s",
	ConfigUnknownKey:   "Error: unknown setting %s",
	ConfigInvalidValue: "Error: invalid value %[2]s for setting %[1]s",
	ConfigUpdated:      "Setting %s updated to %s",
	ConfigForbidden:    "Error: only the group owner, admins or superusers can change settings",
	InternalError:      "Error: internal error, please try again later",
	Help:               helpEN,
	Usage:              "%s\nSend `afd -h` for help",
	UsageMissingArg:    "missing argument %s",
	UsageExtraArgs:     "unexpected arguments: %s",
	UsageUnknownSub:    "unknown subcommand: %s",

	NoticeNotFound:     "The order number from user %s returned no records, author %s must handle it, %s",
	NoticeNoAccount:    "Order %[2]s from user %[1]s does not belong to any author of group %[3]s, %[4]s",
	NoticeAmbiguous:    "Order %[2]s from user %[1]s matched multiple records, please handle the join request manually",
	NoticeBoundOther:   "User %s passed the order check, but the AFDian account is already bound to user %s, %s",
	NoticeLevelLow:     "User %s passed the order check, but level %s is below the minimum of group %s (%s), %s",
	NoticeLevelUnknown: "User %s passed the order check, but their level is unavailable, please handle the join request manually",
	SuffixRejected:     "join request rejected",
	SuffixManual:       "please handle the join request manually",
	ReasonNotFound:     "no order found",
	ReasonNoAccount:    "order does not belong to this group's authors",
	ReasonBoundOther:   "AFDian account already bound to another member",
	ReasonLevelTooLow:  "account level below the group minimum",
	ReasonAmbiguous:    "multiple orders found",
}

var builder = func() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.Chinese))
	for key, msg := range zh {
		_ = b.SetString(language.Chinese, key, msg)
	}
	for key, msg := range en {
		_ = b.SetString(language.English, key, msg)
	}
	return b
}()

// Printer renders localized user-visible text.
type Printer struct {
	p   *message.Printer
	tag language.Tag
}

// NewPrinter returns a printer for locale. Anything that is not English
// falls back to Chinese.
func NewPrinter(locale string) *Printer {
	tag := language.Chinese
	if parsed, err := language.Parse(strings.TrimSpace(locale)); err == nil {
		if base, _ := parsed.Base(); base.String() == "en" {
			tag = language.English
		}
	}
	return &Printer{p: message.NewPrinter(tag, message.Catalog(builder)), tag: tag}
}

// Sprintf formats the message registered under key.
func (p *Printer) Sprintf(key string, args ...string) string {
	vals := make([]any, len(args))
	for i, a := range args {
		vals[i] = a
	}
	return p.p.Sprintf(key, vals...)
}

// Locale reports the resolved language.
func (p *Printer) Locale() string {
	return p.tag.String()
}
