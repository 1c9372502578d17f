package services

import (
	"fmt"
	"strings"
)

// FormatAmount renders a currency value for customer-facing messages.
func FormatAmount(amount float64) string {
	return fmt.Sprintf("RM%.2f", amount)
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Sahabat"
	}
	return name
}

func packageLabel(packageID string) string {
	if packageID == "" {
		return "set buku anda"
	}
	return fmt.Sprintf("pakej %s", packageID)
}

// reminderText builds the WhatsApp message for a given sequence.
func reminderText(sequence int, name, packageID string, amount float64, link string) string {
	name = displayName(name)
	pkg := packageLabel(packageID)

	switch sequence {
	case 1:
		return fmt.Sprintf(`Hai %s! 👋

Kami perasan tempahan %s (%s) anda masih belum selesai.

Klik link ini untuk sambung pembayaran:
%s

Ada soalan? Balas je mesej ini. 😊`,
			name, pkg, FormatAmount(amount), link)
	default:
		return fmt.Sprintf(`Hai %s!

Peringatan terakhir: tempahan %s (%s) anda akan luput tidak lama lagi.

Selesaikan pembayaran di sini:
%s

Kami tak nak anda terlepas! 📚`,
			name, pkg, FormatAmount(amount), link)
	}
}

// reminderEmail builds the subject and HTML body for a given sequence.
func reminderEmail(sequence int, name, packageID string, amount float64, link string) (string, string) {
	name = displayName(name)
	pkg := packageLabel(packageID)

	subject := "Tempahan buku anda masih menunggu"
	if sequence == 3 {
		subject = "Peringatan terakhir: tempahan buku anda"
	}

	html := fmt.Sprintf(`<p>Hai %s,</p>
<p>Tempahan <b>%s</b> sebanyak <b>%s</b> masih belum dibayar.</p>
<p><a href="%s">Klik di sini untuk selesaikan pembayaran</a></p>
<p>Jika anda sudah membuat pembayaran, abaikan emel ini.</p>
<p>Terima kasih,<br>Tim Buku</p>`,
		name, pkg, FormatAmount(amount), link)

	return subject, html
}
