package database

// RatingTriggers returns the statements that keep equipment.total_reviews,
// rating_sum and average_rating in step with the reviews table. Each
// statement must be executed separately.
//
// The equipment row is updated with self-referencing increments so that the
// row lock taken by UPDATE serialises concurrent review writers.
func RatingTriggers(d Dialect) []string {
	if d == Postgres {
		return []string{postgresRatingFunc, postgresDropRatingTrigger, postgresRatingTrigger}
	}
	return []string{
		`DROP TRIGGER IF EXISTS reviews_after_insert`,
		`DROP TRIGGER IF EXISTS reviews_after_delete`,
		`DROP TRIGGER IF EXISTS reviews_after_update`,
		sqliteInsertTrigger,
		sqliteDeleteTrigger,
		sqliteUpdateTrigger,
	}
}

const sqliteInsertTrigger = `
CREATE TRIGGER reviews_after_insert AFTER INSERT ON reviews
BEGIN
	UPDATE equipment SET
		total_reviews = total_reviews + 1,
		rating_sum = rating_sum + NEW.rating,
		average_rating = CAST(rating_sum + NEW.rating AS REAL) / (total_reviews + 1)
	WHERE id = NEW.equipment_id;
END`

const sqliteDeleteTrigger = `
CREATE TRIGGER reviews_after_delete AFTER DELETE ON reviews
BEGIN
	UPDATE equipment SET
		total_reviews = total_reviews - 1,
		rating_sum = rating_sum - OLD.rating,
		average_rating = CASE
			WHEN total_reviews - 1 <= 0 THEN 0
			ELSE CAST(rating_sum - OLD.rating AS REAL) / (total_reviews - 1)
		END
	WHERE id = OLD.equipment_id;
END`

const sqliteUpdateTrigger = `
CREATE TRIGGER reviews_after_update AFTER UPDATE OF rating ON reviews
WHEN NEW.rating <> OLD.rating
BEGIN
	UPDATE equipment SET
		rating_sum = rating_sum + NEW.rating - OLD.rating,
		average_rating = CASE
			WHEN total_reviews <= 0 THEN 0
			ELSE CAST(rating_sum + NEW.rating - OLD.rating AS REAL) / total_reviews
		END
	WHERE id = NEW.equipment_id;
END`

const postgresRatingFunc = `
CREATE OR REPLACE FUNCTION reviews_maintain_equipment_rating() RETURNS trigger AS $$
BEGIN
	IF TG_OP = 'INSERT' THEN
		UPDATE equipment SET
			total_reviews = total_reviews + 1,
			rating_sum = rating_sum + NEW.rating,
			average_rating = (rating_sum + NEW.rating)::double precision / (total_reviews + 1)
		WHERE id = NEW.equipment_id;
		RETURN NEW;
	ELSIF TG_OP = 'DELETE' THEN
		UPDATE equipment SET
			total_reviews = total_reviews - 1,
			rating_sum = rating_sum - OLD.rating,
			average_rating = CASE
				WHEN total_reviews - 1 <= 0 THEN 0
				ELSE (rating_sum - OLD.rating)::double precision / (total_reviews - 1)
			END
		WHERE id = OLD.equipment_id;
		RETURN OLD;
	END IF;

	IF NEW.rating <> OLD.rating THEN
		UPDATE equipment SET
			rating_sum = rating_sum + NEW.rating - OLD.rating,
			average_rating = CASE
				WHEN total_reviews <= 0 THEN 0
				ELSE (rating_sum + NEW.rating - OLD.rating)::double precision / total_reviews
			END
		WHERE id = NEW.equipment_id;
	END IF;
	RETURN NEW;
END;
$$ LANGUAGE plpgsql`

const postgresDropRatingTrigger = `DROP TRIGGER IF EXISTS reviews_rating_trigger ON reviews`

const postgresRatingTrigger = `
CREATE TRIGGER reviews_rating_trigger
AFTER INSERT OR DELETE OR UPDATE OF rating ON reviews
FOR EACH ROW EXECUTE FUNCTION reviews_maintain_equipment_rating()`
