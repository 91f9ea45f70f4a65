package service

// Menu button labels. The transport renders these as the persistent
// reply keyboard and sends them back verbatim when pressed.
const (
	CmdStart     = "/start"
	CmdAddPart   = "📦 Добавить запчасть"
	CmdListParts = "📋 Список запчастей"
	CmdIssuePart = "🔻 Выдача запчасти"
	CmdReport    = "📊 Отчет"
)

const (
	msgWelcome         = "🔧 Добро пожаловать! Выберите действие:"
	msgChooseAction    = "🔧 Выберите действие:"
	msgPromptName      = "Введите название запчасти:"
	msgEmptyName       = "❌ Название не может быть пустым."
	msgPromptQuantity  = "Введите количество:"
	msgBadNumber       = "❌ Введите корректное число."
	msgPartAdded       = "✅ Добавлена запчасть: %s (кол-во: %d)"
	msgListEmpty       = "📭 Список запчастей пуст."
	msgListHeader      = "📋 Список запчастей:\n"
	msgNoParts         = "📭 Нет доступных запчастей."
	msgSelectPart      = "📋 Выберите номер запчасти для выдачи:\n"
	msgBadPartNumber   = "❌ Введите корректный номер запчасти."
	msgPromptIssueQty  = "Введите количество для выдачи:"
	msgPromptRecipient = "Введите ФИО получателя:"
	msgEmptyRecipient  = "❌ Введите ФИО получателя."
	msgInsufficient    = "❌ Недостаточно запчастей на складе."
	msgPartNotFound    = "❌ Запчасть не найдена."
	msgIssued          = "✅ Выдано %d шт. %s получателю: %s"
	msgReportEmpty     = "📭 За этот месяц выдач не было."
	msgReportCaption   = "📊 Отчет за текущий месяц"
	msgStoreFailure    = "❌ Произошла ошибка, попробуйте снова."
)
