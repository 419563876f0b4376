package notify

import (
	"fmt"
	"time"

	"github.com/huntier-api/internal/domain"
)

// Message is a rendered notification. Subject is empty for SMS.
type Message struct {
	Subject string
	Body    string
}

type codeTemplate struct {
	subject string
	email   string
	sms     string
}

var codeTemplates = map[domain.Locale]map[domain.OTPPurpose]codeTemplate{
	domain.LocaleEN: {
		domain.OTPPurposeLogin: {
			subject: "Your Huntier sign-in code",
			email:   "Your Huntier sign-in code is %s.\n\nIt expires in %d minutes. If you did not try to sign in, you can ignore this email.",
			sms:     "[Huntier] Your sign-in code is %s. It expires in %d minutes.",
		},
		domain.OTPPurposeContactVerify: {
			subject: "Confirm your contact on Huntier",
			email:   "Use %s to confirm this address on your Huntier account.\n\nThe code expires in %d minutes.",
			sms:     "[Huntier] Your confirmation code is %s. It expires in %d minutes.",
		},
	},
	domain.LocaleZH: {
		domain.OTPPurposeLogin: {
			subject: "Huntier 登录验证码",
			email:   "你的 Huntier 登录验证码是 %s。\n\n验证码将在 %d 分钟后失效。如果这不是你本人的操作，请忽略此邮件。",
			sms:     "【Huntier】你的登录验证码是 %s，%d 分钟内有效。",
		},
		domain.OTPPurposeContactVerify: {
			subject: "确认你的 Huntier 联系方式",
			email:   "请使用 %s 确认此联系方式已绑定到你的 Huntier 账号。\n\n验证码将在 %d 分钟后失效。",
			sms:     "【Huntier】你的确认码是 %s，%d 分钟内有效。",
		},
	},
}

// CodeMessage renders the one-time code message for the contact's channel.
// Unknown locales fall back to English.
func CodeMessage(kind domain.ContactKind, purpose domain.OTPPurpose, locale domain.Locale, code string, ttl time.Duration) Message {
	byPurpose, ok := codeTemplates[locale]
	if !ok {
		byPurpose = codeTemplates[domain.LocaleEN]
	}
	tpl, ok := byPurpose[purpose]
	if !ok {
		tpl = byPurpose[domain.OTPPurposeLogin]
	}
	minutes := int(ttl.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	if kind == domain.ContactPhone {
		return Message{Body: fmt.Sprintf(tpl.sms, code, minutes)}
	}
	return Message{Subject: tpl.subject, Body: fmt.Sprintf(tpl.email, code, minutes)}
}
