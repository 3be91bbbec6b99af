package sqlstore

import (
	"fmt"

	"gorm.io/gorm"
)

// Таблицы SQLite совпадают с файлом flash_tans.db прежнего сервиса: CREATE IF NOT EXISTS
// ничего не трогает в существующей базе, недостающие колонки добавляет sqliteUpgrades.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    price REAL NOT NULL,
    description TEXT,
    image TEXT DEFAULT '/images/placeholder.jpg',
    stock INTEGER DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS customers (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    address TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS orders (
    id TEXT PRIMARY KEY,
    customer_id TEXT,
    total REAL NOT NULL,
    status TEXT DEFAULT 'pending',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (customer_id) REFERENCES customers(id)
)`,
	`CREATE TABLE IF NOT EXISTS order_items (
    id TEXT PRIMARY KEY,
    order_id TEXT,
    position INTEGER NOT NULL DEFAULT 0,
    product_id TEXT,
    product_name TEXT,
    price REAL,
    quantity INTEGER,
    subtotal REAL,
    FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
)`,
	`CREATE INDEX IF NOT EXISTS idx_products_created_at ON products (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_customers_created_at ON customers (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items (order_id)`,
}

type columnUpgrade struct {
	table, column string
	add           string
	backfill      string
}

// колонки, которых нет в базах прежнего сервиса. SQLite не разрешает
// ADD COLUMN с CURRENT_TIMESTAMP, поэтому updated_at заполняется отдельно.
var sqliteUpgrades = []columnUpgrade{
	{
		table: "orders", column: "updated_at",
		add:      `ALTER TABLE orders ADD COLUMN updated_at DATETIME`,
		backfill: `UPDATE orders SET updated_at = created_at WHERE updated_at IS NULL`,
	},
	{
		table: "order_items", column: "position",
		add: `ALTER TABLE order_items ADD COLUMN position INTEGER NOT NULL DEFAULT 0`,
	},
}

// seq задаёт порядок вставки для одинаковых created_at
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
    id VARCHAR(36) PRIMARY KEY,
    seq BIGINT NOT NULL AUTO_INCREMENT,
    name VARCHAR(255) NOT NULL,
    price DOUBLE NOT NULL,
    description TEXT,
    image VARCHAR(512) DEFAULT '/images/placeholder.jpg',
    stock BIGINT NOT NULL DEFAULT 0,
    created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
    updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
    UNIQUE KEY uk_products_seq (seq),
    INDEX idx_products_created_at (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS customers (
    id VARCHAR(36) PRIMARY KEY,
    seq BIGINT NOT NULL AUTO_INCREMENT,
    name VARCHAR(255) NOT NULL,
    email VARCHAR(255) NOT NULL,
    address TEXT,
    created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
    UNIQUE KEY uk_customers_seq (seq),
    INDEX idx_customers_created_at (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS orders (
    id VARCHAR(36) PRIMARY KEY,
    seq BIGINT NOT NULL AUTO_INCREMENT,
    customer_id VARCHAR(36),
    total DOUBLE NOT NULL,
    status VARCHAR(32) NOT NULL DEFAULT 'pending',
    created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
    updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
    UNIQUE KEY uk_orders_seq (seq),
    INDEX idx_orders_created_at (created_at),
    FOREIGN KEY (customer_id) REFERENCES customers(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS order_items (
    id VARCHAR(36) PRIMARY KEY,
    order_id VARCHAR(36) NOT NULL,
    position INT NOT NULL DEFAULT 0,
    product_id VARCHAR(36),
    product_name VARCHAR(255),
    price DOUBLE,
    quantity BIGINT,
    subtotal DOUBLE,
    INDEX idx_order_items_order_id (order_id),
    FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// dialect то, чем SQLite и MySQL различаются для хранилища
type dialect struct {
	schema   []string
	upgrades []columnUpgrade
	// hasColumn запрос с параметрами (table, column), возвращающий число совпадений
	hasColumn string
	// seq колонка порядка вставки: rowid в SQLite, seq в MySQL
	seq string
	// itemsOrder порядок позиций заказа; у старых позиций SQLite position = 0
	itemsOrder string
}

var (
	sqliteDialect = dialect{
		schema:     sqliteSchema,
		upgrades:   sqliteUpgrades,
		hasColumn:  `SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		seq:        "rowid",
		itemsOrder: "position ASC, rowid ASC",
	}
	mysqlDialect = dialect{
		schema:     mysqlSchema,
		hasColumn:  `SELECT COUNT(*) FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? AND column_name = ?`,
		seq:        "seq",
		itemsOrder: "position ASC",
	}
)

func (d dialect) newestFirst() string { return "created_at DESC, " + d.seq + " DESC" }

// migrate создаёт таблицы и дописывает недостающие колонки
func (d dialect) migrate(db *gorm.DB) error {
	for _, stmt := range d.schema {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	for _, up := range d.upgrades {
		var n int64
		if err := db.Raw(d.hasColumn, up.table, up.column).Scan(&n).Error; err != nil {
			return fmt.Errorf("inspect %s.%s: %w", up.table, up.column, err)
		}
		if n > 0 {
			continue
		}
		if err := db.Exec(up.add).Error; err != nil {
			return fmt.Errorf("add %s.%s: %w", up.table, up.column, err)
		}
		if up.backfill != "" {
			if err := db.Exec(up.backfill).Error; err != nil {
				return fmt.Errorf("backfill %s.%s: %w", up.table, up.column, err)
			}
		}
	}
	return nil
}
